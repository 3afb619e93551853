/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package transport talks to the acoustic modem attached to the node.
package transport

import (
	"errors"
	"time"

	"github.com/UpdateHub/sensornode/logging"
)

var (
	// ErrNoFrame is returned when nothing arrives before the timeout
	ErrNoFrame = errors.New("no frame received")
	// ErrLinkClosed is returned when the link is used before Init
	ErrLinkClosed = errors.New("link is not initialized")
)

var log = logging.New("transport")

// Link is a frame oriented, half-duplex channel to the modem
type Link interface {
	Init() error
	Deinit() error
	SendFrame(frame []byte) error
	ReceiveFrame(timeout time.Duration) ([]byte, error)
}
