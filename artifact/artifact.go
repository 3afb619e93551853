/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package artifact unpacks a downloaded module tarball into a slot.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
)

var log = logging.New("artifact")

// Extract unpacks the gzip tarball read from r into dir. When every entry
// lives under one top-level directory (e.g. "owner-repo-sha/" in
// repository tarballs) that directory is stripped.
func Extract(fs afero.Fs, r io.ReadSeeker, dir string) error {
	root, err := commonRoot(r)
	if err != nil {
		return err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "artifact is not a gzip stream")
	}
	defer gz.Close()

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	files := 0

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "artifact is truncated")
		}

		name := stripRoot(cleanName(hdr.Name), root)
		if name == "" {
			continue
		}

		target := path.Join(dir, name)
		if !strings.HasPrefix(target, path.Clean(dir)+"/") {
			return errors.Errorf("artifact entry escapes the slot: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(fs, target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
			files++
		default:
			log.WithField("entry", hdr.Name).Debug("skipping unsupported tar entry")
		}
	}

	if files == 0 {
		return errors.New("artifact has no files")
	}

	return nil
}

// commonRoot returns the top-level directory shared by every entry, or ""
// when the archive is flat
func commonRoot(r io.Reader) (string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return "", errors.Wrap(err, "artifact is not a gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	root := ""
	nested := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "artifact is truncated")
		}

		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		name := cleanName(hdr.Name)
		if name == "" {
			continue
		}

		top, _, found := strings.Cut(name, "/")
		if !found && hdr.Typeflag != tar.TypeDir {
			return "", nil
		}

		if root != "" && top != root {
			return "", nil
		}

		root = top
		nested = nested || found
	}

	if !nested {
		return "", nil
	}

	return root, nil
}

// cleanName confines name to the archive root, "./main.py" becomes "main.py"
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func stripRoot(name, root string) string {
	switch {
	case root == "":
		return name
	case name == root:
		return ""
	}

	return strings.TrimPrefix(name, root+"/")
}

func writeFile(fs afero.Fs, target string, r io.Reader, mode os.FileMode) error {
	if err := fs.MkdirAll(path.Dir(target), 0755); err != nil {
		return err
	}

	if mode == 0 {
		mode = 0644
	}

	f, err := fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}
