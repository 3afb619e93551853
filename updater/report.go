/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package updater

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/utils"
)

type Outcome string

const (
	OutcomeUpToDate Outcome = "up-to-date"
	OutcomeUpdated  Outcome = "updated"
	OutcomeFailed   Outcome = "update-failed"
	OutcomeOffline  Outcome = "offline"
)

type ModuleReport struct {
	Module    string
	Installed metadata.VersionInfo
	Available metadata.VersionInfo
	Outcome   Outcome
	Err       error
}

// Report is the result of one update pass
type Report struct {
	StartedAt time.Time
	Offline   bool
	Modules   []ModuleReport
}

// Updated reports whether any module was promoted
func (r Report) Updated() bool {
	for _, m := range r.Modules {
		if m.Outcome == OutcomeUpdated {
			return true
		}
	}

	return false
}

// Err merges the failures of every module, nil when none failed
func (r Report) Err() error {
	errorList := []error{}

	for _, m := range r.Modules {
		if m.Err != nil {
			errorList = append(errorList, errors.Wrapf(m.Err, "module '%s'", m.Module))
		}
	}

	return utils.MergeErrorList(errorList)
}

func (r Report) Print(w io.Writer) {
	for _, m := range r.Modules {
		line := fmt.Sprintf("%-20s %-14s installed=%s available=%s", m.Module, m.Outcome, orNone(m.Installed), orNone(m.Available))
		if m.Err != nil {
			line += fmt.Sprintf(" error=%q", m.Err.Error())
		}

		fmt.Fprintln(w, line)
	}
}

func orNone(v metadata.VersionInfo) string {
	if v.IsZero() {
		return "-"
	}

	return v.String()
}
