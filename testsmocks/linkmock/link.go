/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package linkmock

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type LinkMock struct {
	mock.Mock
}

func (lm *LinkMock) Init() error {
	args := lm.Called()
	return args.Error(0)
}

func (lm *LinkMock) Deinit() error {
	args := lm.Called()
	return args.Error(0)
}

func (lm *LinkMock) SendFrame(frame []byte) error {
	args := lm.Called(frame)
	return args.Error(0)
}

func (lm *LinkMock) ReceiveFrame(timeout time.Duration) ([]byte, error) {
	args := lm.Called(timeout)
	return args.Get(0).([]byte), args.Error(1)
}
