/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package copy

import (
	"errors"
	"io"
	"time"
)

// ChunkSize is the default read size used while streaming artifacts
const ChunkSize = 128 * 1024

var (
	ErrTimeout = errors.New("timeout")
	ErrChunk   = errors.New("Copy error: chunkSize can't be less than 1")
)

type Interface interface {
	Copy(wr io.Writer, rd io.Reader, timeout time.Duration, cancel <-chan bool, chunkSize int) (bool, int64, error)
}

type ExtendedIO struct {
}

type readResult struct {
	n   int
	err error
}

// Copy copies from rd to wr until EOF, until no byte arrives on rd for
// "timeout" or until it is cancelled. It returns whether it was cancelled
// and the amount of bytes written.
func (eio ExtendedIO) Copy(wr io.Writer, rd io.Reader, timeout time.Duration, cancel <-chan bool, chunkSize int) (bool, int64, error) {
	if chunkSize < 1 {
		return false, 0, ErrChunk
	}

	var written int64

	buf := make([]byte, chunkSize)
	results := make(chan readResult, 1)

	for {
		go func() {
			n, err := rd.Read(buf)
			results <- readResult{n, err}
		}()

		timer := time.NewTimer(timeout)

		var r readResult

	wait:
		for {
			select {
			case _, ok := <-cancel:
				if ok {
					timer.Stop()
					return true, written, nil
				}
				// closed: nobody can cancel anymore
				cancel = nil
			case <-timer.C:
				return false, written, ErrTimeout
			case r = <-results:
				timer.Stop()
				break wait
			}
		}

		if done, err := eio.consume(wr, buf, r, &written); done || err != nil {
			return false, written, err
		}
	}
}

func (eio ExtendedIO) consume(wr io.Writer, buf []byte, r readResult, written *int64) (bool, error) {
	if r.n > 0 {
		n, err := wr.Write(buf[0:r.n])
		*written += int64(n)
		if err != nil {
			return true, err
		}
	}

	if r.err == io.EOF {
		return true, nil
	}

	if r.err != nil {
		return true, r.err
	}

	return false, nil
}
