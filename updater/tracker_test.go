/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleTrackerPaths(t *testing.T) {
	testCases := []struct {
		name    string
		events  []string
		state   string
		outcome Outcome
	}{
		{"UpToDate", []string{EventCheck, EventCurrent}, StateUpToDate, OutcomeUpToDate},
		{"Updated", []string{EventCheck, EventNewer, EventDownloaded, EventPromote}, StatePromoted, OutcomeUpdated},
		{"FailedCheck", []string{EventCheck, EventFail}, StateFailed, OutcomeFailed},
		{"FailedDownload", []string{EventCheck, EventNewer, EventFail}, StateFailed, OutcomeFailed},
		{"FailedPromotion", []string{EventCheck, EventNewer, EventDownloaded, EventFail}, StateFailed, OutcomeFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mt := newModuleTracker("app")
			assert.Equal(t, StateIdle, mt.Current())

			for _, e := range tc.events {
				mt.fire(e)
			}

			assert.Equal(t, tc.state, mt.Current())
			assert.Equal(t, tc.outcome, mt.Outcome())
		})
	}
}

func TestModuleTrackerRejectsInvalidTransition(t *testing.T) {
	mt := newModuleTracker("app")

	mt.fire(EventPromote)

	assert.Equal(t, StateIdle, mt.Current())
	assert.Equal(t, OutcomeFailed, mt.Outcome())
}
