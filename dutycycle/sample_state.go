/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dutycycle

import (
	"fmt"
)

// ReadingSentinel replaces a value whose sensor could not be read
const ReadingSentinel = "----"

// SampleState is the State interface implementation for the CycleStateSample
type SampleState struct {
	BaseState
}

// Handle for SampleState reads the sensors and composes the status message
func (state *SampleState) Handle(c *Controller) State {
	temperature := c.sample("temperature", c.Peripherals.ReadTemperature)
	light := c.sample("light", c.Peripherals.ReadLight)

	payload := FormatPayload(c.counter, temperature, light)

	c.Metrics.SetMessageCounter(c.counter)
	c.counter++

	return NewTransmitState([]byte(payload))
}

func (c *Controller) sample(sensor string, read func() (int, error)) string {
	value, err := read()
	if err != nil {
		log.WithField("sensor", sensor).Warn(err)
		c.Metrics.ObserveSensorFailure(sensor)

		return ReadingSentinel
	}

	return fmt.Sprintf("%04d", value)
}

// FormatPayload renders the status message, readings are already formatted
func FormatPayload(count int, temperature, light string) string {
	return fmt.Sprintf("Count=%04d Temperature=%s Light=%s", count, temperature, light)
}

// NewSampleState creates a new SampleState
func NewSampleState() *SampleState {
	return &SampleState{
		BaseState: BaseState{id: CycleStateSample},
	}
}
