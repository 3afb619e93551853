/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package client

import (
	"context"
	"io"
	"io/ioutil"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/copy"
	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	// LatestObject holds the version the node should run
	LatestObject   = "LATEST"
	ArtifactObject = "module.tar.gz"
)

var (
	errNoSuchObject = errors.New("no such object")
	errInvalidRange = errors.New("invalid range")
)

type objectStore interface {
	ReadObject(ctx context.Context, bucket, key string, offset int64) (io.ReadCloser, error)
	ListPrefixes(ctx context.Context, bucket, prefix string) ([]string, error)
}

type minioStore struct {
	client *minio.Client
}

func (m *minioStore) ReadObject(ctx context.Context, bucket, key string, offset int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if offset > 0 {
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, err
		}
	}

	obj, err := m.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}

	// GetObject is lazy, Stat forces the request
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey":
			return nil, errNoSuchObject
		case "InvalidRange":
			return nil, errInvalidRange
		}

		return nil, err
	}

	return obj, nil
}

func (m *minioStore) ListPrefixes(ctx context.Context, bucket, prefix string) ([]string, error) {
	prefixes := []string{}

	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}

		if strings.HasSuffix(obj.Key, "/") {
			prefixes = append(prefixes, obj.Key)
		}
	}

	return prefixes, nil
}

// S3Repository reads module versions from an S3 compatible bucket.
// Repository URLs look like s3://bucket/prefix; every version is a
// "prefix/<version>/module.tar.gz" object and "prefix/LATEST" names the
// version to run. Nothing is published until LATEST exists.
type S3Repository struct {
	store           objectStore
	CopyBackend     copy.Interface
	DownloadTimeout time.Duration
}

func NewS3Repository(endpoint, accessKey, secretKey string, useSSL bool, downloadTimeout time.Duration) (*S3Repository, error) {
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create s3 client for '%s'", endpoint)
	}

	return &S3Repository{
		store:           &minioStore{client: c},
		CopyBackend:     copy.ExtendedIO{},
		DownloadTimeout: downloadTimeout,
	}, nil
}

func parseS3URL(repoURL string) (string, string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", errors.Wrapf(err, "invalid repository url '%s'", repoURL)
	}

	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.Errorf("repository url '%s' has no bucket", repoURL)
	}

	return u.Host, strings.Trim(u.Path, "/"), nil
}

func (s *S3Repository) timeout() time.Duration {
	if s.DownloadTimeout <= 0 {
		return DefaultDownloadTimeout
	}

	return s.DownloadTimeout
}

func (s *S3Repository) LatestVersion(repoURL string) (metadata.VersionInfo, error) {
	bucket, prefix, err := parseS3URL(repoURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()

	rd, err := s.store.ReadObject(ctx, bucket, path.Join(prefix, LatestObject), 0)
	if err == errNoSuchObject {
		log.WithField("repository", repoURL).Debug("no LATEST object, nothing published")
		return "", nil
	}
	if err != nil {
		return "", utils.NewTransientError(utils.KindNetworkUnreachable, errors.Wrap(err, "failed to read latest version"))
	}
	defer rd.Close()

	data, err := ioutil.ReadAll(io.LimitReader(rd, 256))
	if err != nil {
		return "", errors.Wrap(err, "failed to read latest version")
	}

	return metadata.VersionInfo(strings.TrimSpace(string(data))), nil
}

func (s *S3Repository) ListVersions(repoURL string) ([]metadata.VersionInfo, error) {
	bucket, prefix, err := parseS3URL(repoURL)
	if err != nil {
		return nil, err
	}

	listPrefix := ""
	if prefix != "" {
		listPrefix = prefix + "/"
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()

	prefixes, err := s.store.ListPrefixes(ctx, bucket, listPrefix)
	if err != nil {
		return nil, utils.NewTransientError(utils.KindNetworkUnreachable, errors.Wrap(err, "failed to list versions"))
	}

	versions := []metadata.VersionInfo{}
	for _, p := range prefixes {
		v := strings.TrimSuffix(strings.TrimPrefix(p, listPrefix), "/")
		if v != "" {
			versions = append(versions, metadata.VersionInfo(v))
		}
	}

	return versions, nil
}

func (s *S3Repository) Fetch(repoURL string, version metadata.VersionInfo, fs afero.Fs, dest string) error {
	bucket, prefix, err := parseS3URL(repoURL)
	if err != nil {
		return err
	}

	key := path.Join(prefix, version.String(), ArtifactObject)

	wr, offset, err := openStaging(fs, dest)
	if err != nil {
		return err
	}
	defer wr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rd, err := s.store.ReadObject(ctx, bucket, key, offset)
	if err == errInvalidRange {
		log.WithField("key", key).Info("staged artifact does not match the remote one, restarting download")

		if err := restartStaging(wr); err != nil {
			return err
		}

		offset = 0
		rd, err = s.store.ReadObject(ctx, bucket, key, 0)
	}
	if err != nil {
		return utils.NewTransientError(utils.KindNetworkUnreachable, errors.Wrapf(err, "failed to read '%s'", key))
	}
	defer rd.Close()

	if offset > 0 {
		log.Info("resuming artifact download")
	}

	_, _, err = s.CopyBackend.Copy(wr, rd, s.timeout(), nil, copy.ChunkSize)
	if err != nil {
		return utils.NewTransientError(utils.KindDownloadIncomplete, errors.Wrap(err, "artifact download interrupted"))
	}

	return wr.Sync()
}
