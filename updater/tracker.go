/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package updater

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

const (
	StateIdle        = "idle"
	StateChecking    = "checking"
	StateUpToDate    = "up-to-date"
	StateDownloading = "downloading"
	StateStaged      = "staged"
	StatePromoted    = "promoted"
	StateFailed      = "failed"

	EventCheck      = "check"
	EventCurrent    = "current"
	EventNewer      = "newer"
	EventDownloaded = "downloaded"
	EventPromote    = "promote"
	EventFail       = "fail"
)

// moduleTracker follows one module through a single update pass
type moduleTracker struct {
	*fsm.FSM
	module string
}

func newModuleTracker(module string) *moduleTracker {
	t := &moduleTracker{module: module}

	events := fsm.Events{
		{Name: EventCheck, Src: []string{StateIdle}, Dst: StateChecking},
		{Name: EventCurrent, Src: []string{StateChecking}, Dst: StateUpToDate},
		{Name: EventNewer, Src: []string{StateChecking}, Dst: StateDownloading},
		{Name: EventDownloaded, Src: []string{StateDownloading}, Dst: StateStaged},
		{Name: EventPromote, Src: []string{StateStaged}, Dst: StatePromoted},
		{Name: EventFail, Src: []string{StateChecking, StateDownloading, StateStaged}, Dst: StateFailed},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(ctx context.Context, e *fsm.Event) {
			log.WithFields(logrus.Fields{
				"module": t.module,
				"from":   e.Src,
				"to":     e.Dst,
			}).Debug("module state changed")
		},
	}

	t.FSM = fsm.NewFSM(StateIdle, events, callbacks)

	return t
}

func (t *moduleTracker) fire(event string) {
	if err := t.Event(context.Background(), event); err != nil {
		log.WithField("module", t.module).Error("invalid module transition: ", err)
	}
}

// Outcome maps the terminal state onto the pass outcome
func (t *moduleTracker) Outcome() Outcome {
	switch t.Current() {
	case StateUpToDate:
		return OutcomeUpToDate
	case StatePromoted:
		return OutcomeUpdated
	}

	return OutcomeFailed
}
