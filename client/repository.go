/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package client

import (
	"io"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/utils"
)

var log = logging.New("client")

// Repository is the remote source of module versions
type Repository interface {
	// LatestVersion returns the zero VersionInfo when the repository
	// has nothing published yet
	LatestVersion(repoURL string) (metadata.VersionInfo, error)
	ListVersions(repoURL string) ([]metadata.VersionInfo, error)
	// Fetch downloads the artifact of version into dest, resuming
	// from whatever a previous attempt left there
	Fetch(repoURL string, version metadata.VersionInfo, fs afero.Fs, dest string) error
}

// Dispatcher routes each repository URL to the backend registered for
// its scheme
type Dispatcher struct {
	backends map[string]Repository
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{backends: map[string]Repository{}}
}

// NewRepository builds the dispatcher described by the node settings
func NewRepository(s *settings.Settings) (*Dispatcher, error) {
	d := NewDispatcher()

	apiBase, err := utils.SanitizeServerAddress(s.GitHubAPI)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid GitHub API address '%s'", s.GitHubAPI)
	}

	gh := NewGitHubRepository(apiBase, s.DownloadTimeout)
	d.Register("https", gh)
	d.Register("http", gh)

	if s.S3Endpoint != "" {
		s3, err := NewS3Repository(s.S3Endpoint, s.S3AccessKey, s.S3SecretKey, s.S3UseSSL, s.DownloadTimeout)
		if err != nil {
			return nil, err
		}

		d.Register("s3", s3)
	}

	return d, nil
}

func (d *Dispatcher) Register(scheme string, r Repository) {
	d.backends[scheme] = r
}

func (d *Dispatcher) backend(repoURL string) (Repository, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid repository url '%s'", repoURL)
	}

	r, ok := d.backends[u.Scheme]
	if !ok {
		return nil, errors.Errorf("unsupported repository url '%s'", repoURL)
	}

	return r, nil
}

func (d *Dispatcher) LatestVersion(repoURL string) (metadata.VersionInfo, error) {
	r, err := d.backend(repoURL)
	if err != nil {
		return "", err
	}

	return r.LatestVersion(repoURL)
}

func (d *Dispatcher) ListVersions(repoURL string) ([]metadata.VersionInfo, error) {
	r, err := d.backend(repoURL)
	if err != nil {
		return nil, err
	}

	return r.ListVersions(repoURL)
}

func (d *Dispatcher) Fetch(repoURL string, version metadata.VersionInfo, fs afero.Fs, dest string) error {
	r, err := d.backend(repoURL)
	if err != nil {
		return err
	}

	return r.Fetch(repoURL, version, fs, dest)
}

// openStaging opens dest for writing positioned at its end and returns
// how many bytes a previous attempt already stored
func openStaging(fs afero.Fs, dest string) (afero.File, int64, error) {
	f, err := fs.OpenFile(dest, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, 0, err
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, offset, nil
}

func restartStaging(f afero.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}

	_, err := f.Seek(0, io.SeekStart)

	return err
}
