/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package repositorymock

import (
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"

	"github.com/UpdateHub/sensornode/metadata"
)

type RepositoryMock struct {
	mock.Mock
}

func (rm *RepositoryMock) LatestVersion(repoURL string) (metadata.VersionInfo, error) {
	args := rm.Called(repoURL)
	return args.Get(0).(metadata.VersionInfo), args.Error(1)
}

func (rm *RepositoryMock) ListVersions(repoURL string) ([]metadata.VersionInfo, error) {
	args := rm.Called(repoURL)
	return args.Get(0).([]metadata.VersionInfo), args.Error(1)
}

func (rm *RepositoryMock) Fetch(repoURL string, version metadata.VersionInfo, fs afero.Fs, dest string) error {
	args := rm.Called(repoURL, version, fs, dest)
	return args.Error(0)
}
