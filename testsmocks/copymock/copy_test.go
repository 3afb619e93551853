/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package copymock

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCopy(t *testing.T) {
	expectedError := fmt.Errorf("some error")
	wr := &bytes.Buffer{}
	rd := &bytes.Buffer{}

	cm := &CopyMock{}
	cm.On("Copy", wr, rd, time.Minute, (<-chan bool)(nil), 1024).Return(false, int64(10), expectedError)

	cancelled, n, err := cm.Copy(wr, rd, time.Minute, nil, 1024)

	assert.False(t, cancelled)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, expectedError, err)

	cm.AssertExpectations(t)
}
