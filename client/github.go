/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package client

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anacrolix/missinggo/httptoo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/copy"
	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	ReleasesEndpoint      = "/repos/%s/%s/releases"
	LatestReleaseEndpoint = "/repos/%s/%s/releases/latest"
	TarballEndpoint       = "/repos/%s/%s/tarball/%s"

	DefaultDownloadTimeout = 30 * time.Second
)

// GitHubRepository reads module versions from the releases of a GitHub
// repository. Repository URLs look like https://github.com/owner/repo
type GitHubRepository struct {
	ApiRequester
	CopyBackend     copy.Interface
	APIBase         string
	DownloadTimeout time.Duration
}

type release struct {
	TagName string `json:"tag_name"`
}

func NewGitHubRepository(apiBase string, downloadTimeout time.Duration) *GitHubRepository {
	return &GitHubRepository{
		ApiRequester:    NewApiClient(),
		CopyBackend:     copy.ExtendedIO{},
		APIBase:         strings.TrimSuffix(apiBase, "/"),
		DownloadTimeout: downloadTimeout,
	}
}

func parseGitHubURL(repoURL string) (string, string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", errors.Wrapf(err, "invalid repository url '%s'", repoURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("repository url '%s' has no owner/name", repoURL)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func (g *GitHubRepository) endpoint(repoURL string, format string, extra ...interface{}) (string, error) {
	owner, name, err := parseGitHubURL(repoURL)
	if err != nil {
		return "", err
	}

	args := append([]interface{}{owner, name}, extra...)

	return g.APIBase + fmt.Sprintf(format, args...), nil
}

func (g *GitHubRepository) get(uri string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create repository request")
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sensornode")
	for k, v := range header {
		req.Header[k] = v
	}

	res, err := g.Do(req)
	if err != nil {
		return nil, utils.NewTransientError(utils.KindNetworkUnreachable, errors.Wrap(err, "repository request failed"))
	}

	return res, nil
}

func (g *GitHubRepository) LatestVersion(repoURL string) (metadata.VersionInfo, error) {
	uri, err := g.endpoint(repoURL, LatestReleaseEndpoint)
	if err != nil {
		return "", err
	}

	res, err := g.get(uri, nil)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var r release
		if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
			return "", errors.Wrap(err, "failed to parse latest release")
		}

		return metadata.VersionInfo(r.TagName), nil
	case http.StatusNotFound:
		// no release published yet
		return "", nil
	}

	return "", errors.Errorf("invalid response received from the repository. HTTP code: %d", res.StatusCode)
}

func (g *GitHubRepository) ListVersions(repoURL string) ([]metadata.VersionInfo, error) {
	uri, err := g.endpoint(repoURL, ReleasesEndpoint)
	if err != nil {
		return nil, err
	}

	res, err := g.get(uri, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("invalid response received from the repository. HTTP code: %d", res.StatusCode)
	}

	var releases []release
	if err := json.NewDecoder(res.Body).Decode(&releases); err != nil {
		return nil, errors.Wrap(err, "failed to parse releases")
	}

	versions := []metadata.VersionInfo{}
	for _, r := range releases {
		versions = append(versions, metadata.VersionInfo(r.TagName))
	}

	return versions, nil
}

func (g *GitHubRepository) Fetch(repoURL string, version metadata.VersionInfo, fs afero.Fs, dest string) error {
	uri, err := g.endpoint(repoURL, TarballEndpoint, url.PathEscape(version.String()))
	if err != nil {
		return err
	}

	wr, offset, err := openStaging(fs, dest)
	if err != nil {
		return err
	}
	defer wr.Close()

	header := http.Header{}
	if offset > 0 {
		header.Set("Range", httptoo.BytesRange{First: offset, Last: math.MaxInt64}.String())
	}

	res, err := g.get(uri, header)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	length := int64(-1)

	switch res.StatusCode {
	case http.StatusOK:
		if offset > 0 {
			log.WithField("uri", uri).Info("repository ignored the range request, restarting download")

			if err := restartStaging(wr); err != nil {
				return err
			}
			offset = 0
		}

		length = res.ContentLength
	case http.StatusPartialContent:
		cr, ok := httptoo.ParseBytesContentRange(res.Header.Get("Content-Range"))
		if !ok || cr.First != offset {
			return utils.NewTransientError(utils.KindDownloadIncomplete,
				errors.Errorf("unexpected content range '%s'", res.Header.Get("Content-Range")))
		}

		log.Debug(fmt.Sprintf("first_bytes=%d last_bytes=%d length=%d", cr.First, cr.Last, cr.Length))
		log.Info("resuming artifact download")

		length = cr.Length
	case http.StatusRequestedRangeNotSatisfiable:
		cr, ok := httptoo.ParseBytesContentRange(res.Header.Get("Content-Range"))
		if ok && cr.Length == offset {
			return nil
		}

		if err := restartStaging(wr); err != nil {
			return err
		}

		return utils.NewTransientError(utils.KindDownloadIncomplete, errors.New("staged artifact is larger than the remote one"))
	default:
		return errors.Errorf("invalid response received from the repository. HTTP code: %d", res.StatusCode)
	}

	timeout := g.DownloadTimeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}

	_, written, err := g.CopyBackend.Copy(wr, res.Body, timeout, nil, copy.ChunkSize)
	if err != nil {
		return utils.NewTransientError(utils.KindDownloadIncomplete, errors.Wrap(err, "artifact download interrupted"))
	}

	if length >= 0 && offset+written != length {
		return utils.NewTransientError(utils.KindDownloadIncomplete,
			errors.Errorf("artifact download incomplete: %d of %d bytes", offset+written, length))
	}

	return wr.Sync()
}
