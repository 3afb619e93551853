/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package peripheralsmock

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UpdateHub/sensornode/peripherals"
)

func TestRegulator(t *testing.T) {
	expectedError := fmt.Errorf("some error")

	pm := &PeripheralsMock{}
	pm.On("EnableRegulator").Return(nil)
	pm.On("DisableRegulator").Return(expectedError)

	assert.NoError(t, pm.EnableRegulator())
	assert.Equal(t, expectedError, pm.DisableRegulator())

	pm.AssertExpectations(t)
}

func TestReadSensors(t *testing.T) {
	expectedError := fmt.Errorf("some error")

	pm := &PeripheralsMock{}
	pm.On("ReadTemperature").Return(21, nil)
	pm.On("ReadLight").Return(0, expectedError)

	temperature, err := pm.ReadTemperature()
	assert.Equal(t, 21, temperature)
	assert.NoError(t, err)

	light, err := pm.ReadLight()
	assert.Equal(t, 0, light)
	assert.Equal(t, expectedError, err)

	pm.AssertExpectations(t)
}

func TestIndicators(t *testing.T) {
	pm := &PeripheralsMock{}
	pm.On("SetIndicator", peripherals.Activity, true).Return(nil)
	pm.On("ToggleIndicator", peripherals.Heartbeat).Return(nil)

	assert.NoError(t, pm.SetIndicator(peripherals.Activity, true))
	assert.NoError(t, pm.ToggleIndicator(peripherals.Heartbeat))

	pm.AssertExpectations(t)
}

func TestSleepUntil(t *testing.T) {
	wake := time.Unix(1000, 0)

	pm := &PeripheralsMock{}
	pm.On("SleepUntil", wake).Return()

	pm.SleepUntil(wake)

	pm.AssertExpectations(t)
}
