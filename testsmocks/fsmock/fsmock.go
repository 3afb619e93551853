/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package fsmock

import (
	"os"
	"path"
	"sync"

	"github.com/spf13/afero"
)

// SyncRecorder logs renames and syncs, in order, as "rename <newpath>"
// and "sync <path>"
type SyncRecorder struct {
	afero.Fs

	mutex  sync.Mutex
	events []string
}

func NewSyncRecorder(fs afero.Fs) *SyncRecorder {
	return &SyncRecorder{Fs: fs}
}

func (r *SyncRecorder) record(event string, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = append(r.events, event+" "+path.Clean(name))
}

// Events returns what happened so far
func (r *SyncRecorder) Events() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return append([]string{}, r.events...)
}

func (r *SyncRecorder) Open(name string) (afero.File, error) {
	f, err := r.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	return &recordedFile{File: f, recorder: r, name: name}, nil
}

func (r *SyncRecorder) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := r.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	return &recordedFile{File: f, recorder: r, name: name}, nil
}

func (r *SyncRecorder) Rename(oldname, newname string) error {
	err := r.Fs.Rename(oldname, newname)
	if err == nil {
		r.record("rename", newname)
	}

	return err
}

type recordedFile struct {
	afero.File

	recorder *SyncRecorder
	name     string
}

func (f *recordedFile) Sync() error {
	err := f.File.Sync()
	if err == nil {
		f.recorder.record("sync", f.name)
	}

	return err
}
