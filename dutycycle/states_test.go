/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dutycycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateToString(t *testing.T) {
	assert.Equal(t, "awake", StateToString(CycleStateAwake))
	assert.Equal(t, "sample", StateToString(CycleStateSample))
	assert.Equal(t, "transmit", StateToString(CycleStateTransmit))
	assert.Equal(t, "sleep", StateToString(CycleStateSleep))
}

func TestStateIDs(t *testing.T) {
	assert.Equal(t, CycleStateAwake, NewAwakeState().ID())
	assert.Equal(t, CycleStateSample, NewSampleState().ID())
	assert.Equal(t, CycleStateTransmit, NewTransmitState(nil).ID())
	assert.Equal(t, CycleStateSleep, NewSleepState().ID())
}

func TestTransmitStatePayload(t *testing.T) {
	state := NewTransmitState([]byte("Count=0001"))
	assert.Equal(t, []byte("Count=0001"), state.Payload())
}

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "Count=0042 Temperature=0100 Light=----", FormatPayload(42, "0100", ReadingSentinel))
	assert.Equal(t, "Count=12345 Temperature=0001 Light=0002", FormatPayload(12345, "0001", "0002"))
}
