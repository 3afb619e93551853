/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package transport

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial"

	"github.com/UpdateHub/sensornode/settings"
)

type fakePort struct {
	chunks  [][]byte
	written []byte
	timeout time.Duration
	closed  bool
	readErr error
}

func (fp *fakePort) SetMode(mode *serial.Mode) error { return nil }

func (fp *fakePort) Read(p []byte) (int, error) {
	if fp.readErr != nil {
		return 0, fp.readErr
	}

	if len(fp.chunks) == 0 {
		// nothing on the wire, the read times out
		if fp.timeout > 0 && fp.timeout < 5*time.Millisecond {
			time.Sleep(fp.timeout)
		} else {
			time.Sleep(5 * time.Millisecond)
		}
		return 0, nil
	}

	n := copy(p, fp.chunks[0])
	fp.chunks[0] = fp.chunks[0][n:]
	if len(fp.chunks[0]) == 0 {
		fp.chunks = fp.chunks[1:]
	}

	return n, nil
}

func (fp *fakePort) Write(p []byte) (int, error) {
	fp.written = append(fp.written, p...)
	return len(p), nil
}

func (fp *fakePort) Drain() error             { return nil }
func (fp *fakePort) ResetInputBuffer() error  { return nil }
func (fp *fakePort) ResetOutputBuffer() error { return nil }
func (fp *fakePort) SetDTR(dtr bool) error    { return nil }
func (fp *fakePort) SetRTS(rts bool) error    { return nil }
func (fp *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}
func (fp *fakePort) Break(d time.Duration) error { return nil }

func (fp *fakePort) SetReadTimeout(t time.Duration) error {
	fp.timeout = t
	return nil
}

func (fp *fakePort) Close() error {
	fp.closed = true
	return nil
}

func newTestSerialLink(t *testing.T, fp *fakePort) *SerialLink {
	sl, err := NewSerialLink(settings.Default().LinkSettings)
	assert.NoError(t, err)

	sl.open = func(name string, mode *serial.Mode) (serial.Port, error) {
		assert.Equal(t, "/dev/ttyS1", name)
		return fp, nil
	}

	return sl
}

func TestNewSerialLink(t *testing.T) {
	ls := settings.Default().LinkSettings
	ls.Parity = "even"
	ls.StopBits = 2

	sl, err := NewSerialLink(ls)
	assert.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.TwoStopBits}, sl.Mode)

	ls.Parity = "weird"
	_, err = NewSerialLink(ls)
	assert.EqualError(t, err, "invalid parity: weird")

	ls.Parity = "none"
	ls.StopBits = 3
	_, err = NewSerialLink(ls)
	assert.EqualError(t, err, "invalid stop bits: 3")
}

func TestSerialLinkNotInitialized(t *testing.T) {
	sl := newTestSerialLink(t, &fakePort{})

	assert.Equal(t, ErrLinkClosed, sl.SendFrame([]byte("x")))

	_, err := sl.ReceiveFrame(time.Millisecond)
	assert.Equal(t, ErrLinkClosed, err)

	assert.NoError(t, sl.Deinit())
}

func TestSerialLinkInitWithOpenError(t *testing.T) {
	sl := newTestSerialLink(t, &fakePort{})
	sl.open = func(name string, mode *serial.Mode) (serial.Port, error) {
		return nil, fmt.Errorf("no such device")
	}

	assert.EqualError(t, sl.Init(), "failed to open '/dev/ttyS1': no such device")
}

func TestSerialLinkSendAndReceive(t *testing.T) {
	fp := &fakePort{chunks: [][]byte{[]byte("$M007"), []byte("10\r\n#R007T0"), []byte("3200\r\n")}}
	sl := newTestSerialLink(t, fp)

	assert.NoError(t, sl.Init())
	assert.NoError(t, sl.SendFrame([]byte("$M00710Count=0001")))
	assert.Equal(t, "$M00710Count=0001", string(fp.written))

	frame, err := sl.ReceiveFrame(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "$M00710", string(frame))

	frame, err = sl.ReceiveFrame(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "#R007T03200", string(frame))

	assert.NoError(t, sl.Deinit())
	assert.True(t, fp.closed)
}

func TestSerialLinkSkipsEmptyLines(t *testing.T) {
	fp := &fakePort{chunks: [][]byte{[]byte("\r\n\n#TO\r\n")}}
	sl := newTestSerialLink(t, fp)

	assert.NoError(t, sl.Init())

	frame, err := sl.ReceiveFrame(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "#TO", string(frame))
}

func TestSerialLinkReceiveTimeout(t *testing.T) {
	fp := &fakePort{chunks: [][]byte{[]byte("partial")}}
	sl := newTestSerialLink(t, fp)

	assert.NoError(t, sl.Init())

	start := time.Now()
	frame, err := sl.ReceiveFrame(30 * time.Millisecond)

	assert.Equal(t, ErrNoFrame, err)
	assert.Nil(t, frame)
	assert.True(t, time.Since(start) >= 30*time.Millisecond)
	assert.True(t, fp.timeout <= 30*time.Millisecond)
}

func TestSerialLinkReceiveWithReadError(t *testing.T) {
	fp := &fakePort{readErr: fmt.Errorf("device gone")}
	sl := newTestSerialLink(t, fp)

	assert.NoError(t, sl.Init())

	_, err := sl.ReceiveFrame(time.Second)
	assert.EqualError(t, err, "failed to receive frame: device gone")
}
