/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package peripheralsmock

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/UpdateHub/sensornode/peripherals"
)

type PeripheralsMock struct {
	mock.Mock
}

func (pm *PeripheralsMock) EnableRegulator() error {
	args := pm.Called()
	return args.Error(0)
}

func (pm *PeripheralsMock) DisableRegulator() error {
	args := pm.Called()
	return args.Error(0)
}

func (pm *PeripheralsMock) ReadTemperature() (int, error) {
	args := pm.Called()
	return args.Int(0), args.Error(1)
}

func (pm *PeripheralsMock) ReadLight() (int, error) {
	args := pm.Called()
	return args.Int(0), args.Error(1)
}

func (pm *PeripheralsMock) SetIndicator(i peripherals.Indicator, on bool) error {
	args := pm.Called(i, on)
	return args.Error(0)
}

func (pm *PeripheralsMock) ToggleIndicator(i peripherals.Indicator) error {
	args := pm.Called(i)
	return args.Error(0)
}

func (pm *PeripheralsMock) SleepUntil(wake time.Time) {
	pm.Called(wake)
}
