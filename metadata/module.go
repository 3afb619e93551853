/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package metadata

import "strings"

// ModuleDescriptor identifies one independently updatable unit
type ModuleDescriptor struct {
	Name          string `json:"name"`
	RepositoryURL string `json:"repository-url"`
}

// VersionInfo is an opaque token (tag, commit) defined by the repository
type VersionInfo string

func (v VersionInfo) IsZero() bool {
	return strings.TrimSpace(string(v)) == ""
}

func (v VersionInfo) Equal(other VersionInfo) bool {
	return strings.TrimSpace(string(v)) == strings.TrimSpace(string(other))
}

// IsNewerThan reports whether v, the version the repository designates as
// latest, should replace "installed". Ordering belongs to the repository,
// so any difference from the installed version counts as newer.
func (v VersionInfo) IsNewerThan(installed VersionInfo) bool {
	if v.IsZero() {
		return false
	}

	return !v.Equal(installed)
}

func (v VersionInfo) String() string {
	return string(v)
}

// StagedUpdate exists between "download complete" and "promote complete
// or abandoned"
type StagedUpdate struct {
	Module        ModuleDescriptor
	TargetVersion VersionInfo
	StagingPath   string
	Slot          int
	Sha256sum     string
}
