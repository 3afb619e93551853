/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dutycycle

// CycleState holds the possible states of a duty cycle
type CycleState int

const (
	// CycleStateAwake is set when the regulator is being powered up
	CycleStateAwake CycleState = iota
	// CycleStateSample is set while the sensors are read
	CycleStateSample
	// CycleStateTransmit is set while the status message is delivered
	CycleStateTransmit
	// CycleStateSleep is set when the node powers down until the next wake
	CycleStateSleep
)

var statusNames = map[CycleState]string{
	CycleStateAwake:    "awake",
	CycleStateSample:   "sample",
	CycleStateTransmit: "transmit",
	CycleStateSleep:    "sleep",
}

// BaseState is the state from which all others must do composition
type BaseState struct {
	id CycleState
}

// ID returns the state id
func (b *BaseState) ID() CycleState {
	return b.id
}

// State interface describes the necessary operations for a State
type State interface {
	ID() CycleState
	Handle(*Controller) State // Handle implements the behavior when the State is set
}

// StateToString converts a "CycleState" to string
func StateToString(status CycleState) string {
	return statusNames[status]
}
