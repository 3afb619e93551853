/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dutycycle

import (
	"github.com/UpdateHub/sensornode/peripherals"
)

// SleepState is the State interface implementation for the CycleStateSleep
type SleepState struct {
	BaseState
}

// Handle for SleepState releases the regulator and the link, then blocks
// until the next scheduled wake
func (state *SleepState) Handle(c *Controller) State {
	if err := c.Peripherals.DisableRegulator(); err != nil {
		log.Warn(err)
	}

	if err := c.Link.Deinit(); err != nil {
		log.Warn(err)
	}

	if err := c.Peripherals.SetIndicator(peripherals.Activity, false); err != nil {
		log.Debug("failed to switch activity indicator: ", err)
	}

	if err := c.Metrics.WriteTextfile(c.MetricsTextfile); err != nil {
		log.Warn("failed to write metrics: ", err)
	}

	c.Peripherals.SleepUntil(c.scheduleNextWake())

	return NewAwakeState()
}

// NewSleepState creates a new SleepState
func NewSleepState() *SleepState {
	return &SleepState{
		BaseState: BaseState{id: CycleStateSleep},
	}
}
