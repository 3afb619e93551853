/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/spf13/afero"
)

func Sha256sum(r io.Reader) (string, error) {
	hash := sha256.New()

	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// FileSha256sum streams the file, artifacts may not fit in memory
func FileSha256sum(fsb afero.Fs, filepath string) (string, error) {
	f, err := fsb.Open(filepath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Sha256sum(f)
}
