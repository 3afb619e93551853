/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package transport

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/UpdateHub/sensornode/settings"
)

const readChunkSize = 64

// SerialLink exchanges CR/LF terminated frames over a UART
type SerialLink struct {
	Device      string
	Mode        *serial.Mode
	ReadTimeout time.Duration

	open    func(name string, mode *serial.Mode) (serial.Port, error)
	port    serial.Port
	pending []byte
}

func parseParity(p string) (serial.Parity, error) {
	switch strings.ToLower(p) {
	case "", "none", "n":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	}

	return serial.NoParity, fmt.Errorf("invalid parity: %s", p)
}

func parseStopBits(s int) (serial.StopBits, error) {
	switch s {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	}

	return serial.OneStopBit, fmt.Errorf("invalid stop bits: %d", s)
}

func NewSerialLink(ls settings.LinkSettings) (*SerialLink, error) {
	parity, err := parseParity(ls.Parity)
	if err != nil {
		return nil, err
	}

	stopBits, err := parseStopBits(ls.StopBits)
	if err != nil {
		return nil, err
	}

	return &SerialLink{
		Device: ls.Device,
		Mode: &serial.Mode{
			BaudRate: ls.BaudRate,
			DataBits: ls.DataBits,
			Parity:   parity,
			StopBits: stopBits,
		},
		ReadTimeout: ls.ReadTimeout,
		open:        serial.Open,
	}, nil
}

// Init opens the UART, it may be called again after Deinit
func (sl *SerialLink) Init() error {
	if sl.port != nil {
		return nil
	}

	port, err := sl.open(sl.Device, sl.Mode)
	if err != nil {
		return errors.Wrapf(err, "failed to open '%s'", sl.Device)
	}

	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return errors.Wrapf(err, "failed to reset '%s'", sl.Device)
	}

	sl.port = port
	sl.pending = nil

	log.WithField("device", sl.Device).Debug("link initialized")

	return nil
}

// Deinit releases the UART so the transceiver can be powered down
func (sl *SerialLink) Deinit() error {
	if sl.port == nil {
		return nil
	}

	err := sl.port.Close()
	sl.port = nil
	sl.pending = nil

	log.WithField("device", sl.Device).Debug("link released")

	return err
}

func (sl *SerialLink) SendFrame(frame []byte) error {
	if sl.port == nil {
		return ErrLinkClosed
	}

	for len(frame) > 0 {
		n, err := sl.port.Write(frame)
		if err != nil {
			return errors.Wrap(err, "failed to send frame")
		}

		frame = frame[n:]
	}

	return nil
}

// ReceiveFrame returns the next non empty line without its terminator
func (sl *SerialLink) ReceiveFrame(timeout time.Duration) ([]byte, error) {
	if sl.port == nil {
		return nil, ErrLinkClosed
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, readChunkSize)

	for {
		if frame, ok := sl.nextFrame(); ok {
			return frame, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrNoFrame
		}

		if sl.ReadTimeout > 0 && remaining > sl.ReadTimeout {
			remaining = sl.ReadTimeout
		}

		if err := sl.port.SetReadTimeout(remaining); err != nil {
			return nil, err
		}

		n, err := sl.port.Read(buf)
		if err != nil {
			return nil, errors.Wrap(err, "failed to receive frame")
		}

		sl.pending = append(sl.pending, buf[:n]...)
	}
}

func (sl *SerialLink) nextFrame() ([]byte, bool) {
	for {
		i := bytes.IndexByte(sl.pending, '\n')
		if i < 0 {
			return nil, false
		}

		line := bytes.TrimRight(sl.pending[:i], "\r")
		sl.pending = sl.pending[i+1:]

		if len(line) > 0 {
			frame := make([]byte, len(line))
			copy(frame, line)
			return frame, true
		}
	}
}
