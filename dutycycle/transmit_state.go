/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dutycycle

import (
	"github.com/UpdateHub/sensornode/delivery"
)

// TransmitState is the State interface implementation for the CycleStateTransmit
type TransmitState struct {
	BaseState

	payload []byte
}

// Payload returns the message this state delivers
func (state *TransmitState) Payload() []byte {
	return state.payload
}

// Handle for TransmitState brings the link up and delivers the message to
// the gateway. The outcome is only recorded, the cycle always goes on.
func (state *TransmitState) Handle(c *Controller) State {
	if err := c.Link.Init(); err != nil {
		log.Warn("link unavailable, message dropped: ", err)

		c.lastResult = delivery.Result{Status: delivery.Timeout, Reason: err.Error()}
		c.Metrics.ObserveDelivery(c.lastResult.Status.String(), 0, 0)

		return NewSleepState()
	}

	c.lastResult = c.Protocol.Deliver(c.Gateway, state.payload)

	return NewSleepState()
}

// NewTransmitState creates a new TransmitState
func NewTransmitState(payload []byte) *TransmitState {
	return &TransmitState{
		BaseState: BaseState{id: CycleStateTransmit},
		payload:   payload,
	}
}
