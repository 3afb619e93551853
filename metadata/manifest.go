/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package metadata

import (
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
)

// ManifestFilename is written last in a slot, its presence marks the slot complete
const ManifestFilename = ".manifest.json"

type SlotManifest struct {
	Version     VersionInfo `json:"version"`
	Sha256sum   string      `json:"sha256sum"`
	InstalledAt time.Time   `json:"installed-at"`
}

func ManifestPath(slotDir string) string {
	return path.Join(slotDir, ManifestFilename)
}

// ReadManifest returns nil when the slot holds no complete image
func ReadManifest(fs afero.Fs, slotDir string) (*SlotManifest, error) {
	data, err := afero.ReadFile(fs, ManifestPath(slotDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m := &SlotManifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}

	return m, nil
}

func WriteManifest(fs afero.Fs, slotDir string, m *SlotManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	f, err := fs.OpenFile(ManifestPath(slotDir), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}
