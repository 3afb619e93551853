/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package repositorymock

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/UpdateHub/sensornode/metadata"
)

func TestLatestVersion(t *testing.T) {
	expectedError := fmt.Errorf("some error")

	rm := &RepositoryMock{}
	rm.On("LatestVersion", "https://github.com/owner/app").Return(metadata.VersionInfo("v1"), expectedError)

	v, err := rm.LatestVersion("https://github.com/owner/app")

	assert.Equal(t, metadata.VersionInfo("v1"), v)
	assert.Equal(t, expectedError, err)

	rm.AssertExpectations(t)
}

func TestListVersions(t *testing.T) {
	expectedError := fmt.Errorf("some error")

	rm := &RepositoryMock{}
	rm.On("ListVersions", "https://github.com/owner/app").Return([]metadata.VersionInfo{"v1", "v2"}, expectedError)

	versions, err := rm.ListVersions("https://github.com/owner/app")

	assert.Equal(t, []metadata.VersionInfo{"v1", "v2"}, versions)
	assert.Equal(t, expectedError, err)

	rm.AssertExpectations(t)
}

func TestFetch(t *testing.T) {
	expectedError := fmt.Errorf("some error")
	fs := afero.NewMemMapFs()

	rm := &RepositoryMock{}
	rm.On("Fetch", "https://github.com/owner/app", metadata.VersionInfo("v2"), fs, "/tmp/download").Return(expectedError)

	err := rm.Fetch("https://github.com/owner/app", "v2", fs, "/tmp/download")

	assert.Equal(t, expectedError, err)

	rm.AssertExpectations(t)
}
