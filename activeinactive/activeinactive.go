/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package activeinactive

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	// PointerFilename holds the index of the active slot
	PointerFilename = "active"

	slotCount = 2
)

var log = logging.New("activeinactive")

// Interface describes the operations related to the Active-Inactive feature
type Interface interface {
	Active() (int, error)
	SetActive(active int) error
	SlotPath(index int) string
}

// DefaultImpl keeps two slots per module and a single-word pointer record
// flipped by rename, so a power cut leaves either the old or the new
// pointer in place
type DefaultImpl struct {
	FileSystemBackend afero.Fs
	ModuleDir         string
}

func New(fs afero.Fs, moduleDir string) *DefaultImpl {
	return &DefaultImpl{FileSystemBackend: fs, ModuleDir: moduleDir}
}

func (i *DefaultImpl) pointerPath() string {
	return path.Join(i.ModuleDir, PointerFilename)
}

// SlotPath returns the directory of slot "index"
func (i *DefaultImpl) SlotPath(index int) string {
	return path.Join(i.ModuleDir, fmt.Sprintf("slot%d", index))
}

// Active returns the current active slot number, slot 0 when the module
// was never promoted
func (i *DefaultImpl) Active() (int, error) {
	data, err := afero.ReadFile(i.FileSystemBackend, i.pointerPath())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		finalErr := fmt.Errorf("failed to read active pointer: %s", err)
		log.Error(finalErr)
		return 0, finalErr
	}

	activeIndex, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 0)
	if err != nil || activeIndex < 0 || activeIndex >= slotCount {
		finalErr := fmt.Errorf("failed to parse active pointer %q", strings.TrimSpace(string(data)))
		log.Error(finalErr)
		return 0, finalErr
	}

	log.Debug("Active slot: ", int(activeIndex))

	return int(activeIndex), nil
}

// Inactive returns the slot that can be used as staging area
func Inactive(i Interface) (int, error) {
	active, err := i.Active()
	if err != nil {
		return 0, err
	}

	return (active - 1) * -1, nil
}

// SetActive sets the current active slot to "active"
func (i *DefaultImpl) SetActive(active int) error {
	if active < 0 || active >= slotCount {
		return fmt.Errorf("invalid slot: %d", active)
	}

	log.Debug("Setting active slot: ", active)

	tmp := i.pointerPath() + ".tmp"

	f, err := i.FileSystemBackend.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to write active pointer: %s", err)
	}

	_, err = f.Write([]byte(strconv.Itoa(active)))
	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		i.FileSystemBackend.Remove(tmp)
		return fmt.Errorf("failed to write active pointer: %s", err)
	}

	if err := i.FileSystemBackend.Rename(tmp, i.pointerPath()); err != nil {
		finalErr := fmt.Errorf("failed to flip active pointer: %s", err)
		log.Error(finalErr)
		return finalErr
	}

	if err := utils.SyncDir(i.FileSystemBackend, i.ModuleDir); err != nil {
		finalErr := fmt.Errorf("failed to sync active pointer: %s", err)
		log.Error(finalErr)
		return finalErr
	}

	return nil
}
