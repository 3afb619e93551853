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

// AwakeState is the State interface implementation for the CycleStateAwake
type AwakeState struct {
	BaseState
}

// Handle for AwakeState powers the external regulator up
func (state *AwakeState) Handle(c *Controller) State {
	if c.wake.IsZero() {
		c.wake = c.now()
	}

	if err := c.Peripherals.SetIndicator(peripherals.Activity, true); err != nil {
		log.Debug("failed to switch activity indicator: ", err)
	}

	if err := c.Peripherals.EnableRegulator(); err != nil {
		log.Warn(err)
	}

	return NewSampleState()
}

// NewAwakeState creates a new AwakeState
func NewAwakeState() *AwakeState {
	return &AwakeState{
		BaseState: BaseState{id: CycleStateAwake},
	}
}
