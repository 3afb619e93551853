/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package delivery sends one message to one node and waits for its
// acknowledgement, retrying a bounded number of times.
package delivery

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/transport"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 5 * time.Second
)

var log = logging.New("delivery")

type Status int

const (
	Delivered Status = iota
	InvalidRequest
	Timeout
)

var statusNames = map[Status]string{
	Delivered:      "delivered",
	InvalidRequest: "invalid-request",
	Timeout:        "timeout",
}

func (s Status) String() string {
	return statusNames[s]
}

// Result of one Deliver call. Elapsed is the wall-clock time across all
// attempts, ResponseTime the round trip reported by the modem.
type Result struct {
	Status       Status
	Elapsed      time.Duration
	RetriesUsed  int
	ResponseTime time.Duration
	Reason       string
}

func (r Result) Delivered() bool {
	return r.Status == Delivered
}

// Err converts a failed result into the matching error kind
func (r Result) Err() error {
	switch r.Status {
	case InvalidRequest:
		return utils.NewTransientError(utils.KindInvalidRequest, fmt.Errorf("%s", r.Reason))
	case Timeout:
		return utils.NewTransientError(utils.KindDeliveryTimeout, fmt.Errorf("no acknowledgement after %d retries", r.RetriesUsed))
	}

	return nil
}

// Protocol serializes deliveries over a Link, one in flight at a time
type Protocol struct {
	Link       transport.Link
	MaxRetries int
	Timeout    time.Duration
	Metrics    *metrics.Metrics
}

func NewProtocol(link transport.Link, ds settings.DeliverySettings, m *metrics.Metrics) *Protocol {
	return &Protocol{
		Link:       link,
		MaxRetries: ds.MaxRetries,
		Timeout:    ds.Timeout,
		Metrics:    m,
	}
}

// Deliver uses the configured retry budget and timeout
func (p *Protocol) Deliver(address int, payload []byte) Result {
	return p.DeliverWith(address, payload, p.MaxRetries, p.Timeout)
}

func (p *Protocol) DeliverWith(address int, payload []byte, maxRetries int, timeout time.Duration) Result {
	frame, err := transport.EncodeUnicastWithAck(address, payload)
	if err != nil {
		log.Warn(err)

		r := Result{Status: InvalidRequest, Reason: err.Error()}
		p.Metrics.ObserveDelivery(r.Status.String(), 0, 0)

		return r
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	r := Result{Status: Timeout}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			r.RetriesUsed++
		}

		rtt, ok := p.attempt(address, frame, len(payload), timeout)

		log.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt + 1,
			"acked":   ok,
		}).Debug("delivery attempt")

		if ok {
			r.Status = Delivered
			r.ResponseTime = rtt
			break
		}
	}

	r.Elapsed = time.Since(start)

	fields := logrus.Fields{
		"address": address,
		"elapsed": r.Elapsed,
		"retries": r.RetriesUsed,
	}
	if r.Delivered() {
		log.WithFields(fields).WithField("response-time", r.ResponseTime).Info("message delivered")
	} else {
		log.WithFields(fields).Warn("message not acknowledged")
	}

	p.Metrics.ObserveDelivery(r.Status.String(), r.RetriesUsed, r.Elapsed)

	return r
}

// attempt sends the frame once and waits up to timeout for the ack of
// address
func (p *Protocol) attempt(address int, frame []byte, length int, timeout time.Duration) (time.Duration, bool) {
	if err := p.Link.SendFrame(frame); err != nil {
		log.Warn(err)
		return 0, false
	}

	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false
		}

		reply, err := p.Link.ReceiveFrame(remaining)
		if err != nil {
			if err != transport.ErrNoFrame {
				log.Warn(err)
			}
			return 0, false
		}

		switch {
		case transport.ParseEcho(reply, address, length):
			continue
		case transport.IsTimeoutReport(reply):
			return 0, false
		}

		if from, rtt, ok := transport.ParseAck(reply); ok && from == address {
			return rtt, true
		}

		log.WithField("frame", string(reply)).Debug("ignoring unexpected frame")
	}
}
