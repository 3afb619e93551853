/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package utils

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMergeErrorList(t *testing.T) {
	var errorList []error

	err := MergeErrorList(errorList)
	assert.NoError(t, err)

	errorList = append(errorList, fmt.Errorf("first error"))

	err = MergeErrorList(errorList)
	assert.EqualError(t, err, "first error")

	errorList = append(errorList, fmt.Errorf("second error"))
	errorList = append(errorList, fmt.Errorf("third error"))

	err = MergeErrorList(errorList)
	assert.EqualError(t, err, "(first error); (second error); (third error)")
}

func TestNewFatalError(t *testing.T) {
	err := NewFatalError(errors.New("settings unreadable"))

	assert.Error(t, err.Cause())
	assert.True(t, err.IsFatal())
	assert.EqualError(t, err, "fatal error: settings unreadable")
}

func TestNewTransientError(t *testing.T) {
	err := NewTransientError(KindDownloadIncomplete, errors.New("unexpected EOF"))

	assert.Error(t, err.Cause())
	assert.False(t, err.IsFatal())
	assert.Equal(t, KindDownloadIncomplete, err.Kind())
	assert.EqualError(t, err, "download-incomplete: unexpected EOF")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindNetworkUnreachable, KindOf(NewTransientError(KindNetworkUnreachable, errors.New("dial tcp"))))
}
