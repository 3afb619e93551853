/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package copymock

import (
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

type CopyMock struct {
	mock.Mock
}

func (cm *CopyMock) Copy(wr io.Writer, rd io.Reader, timeout time.Duration, cancel <-chan bool, chunkSize int) (bool, int64, error) {
	args := cm.Called(wr, rd, timeout, cancel, chunkSize)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}
