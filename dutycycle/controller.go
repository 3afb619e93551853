/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package dutycycle runs the steady-state loop of the node: wake, sample,
// transmit and sleep, forever. Nothing that fails inside a cycle stops the
// loop.
package dutycycle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UpdateHub/sensornode/config"
	"github.com/UpdateHub/sensornode/delivery"
	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/peripherals"
	"github.com/UpdateHub/sensornode/transport"
)

var log = logging.New("dutycycle")

// Deliverer sends a message to an address and reports how it went
type Deliverer interface {
	Deliver(address int, payload []byte) delivery.Result
}

type Controller struct {
	Peripherals     peripherals.Peripherals
	Link            transport.Link
	Protocol        Deliverer
	Gateway         int
	Period          time.Duration
	Metrics         *metrics.Metrics
	MetricsTextfile string

	state      State
	stateMutex sync.Mutex
	stop       atomic.Bool

	counter    int
	wake       time.Time
	lastResult delivery.Result

	now func() time.Time
}

// NewController reads the gateway and the period from "app" once, a new
// period only takes effect after a restart
func NewController(p peripherals.Peripherals, link transport.Link, d Deliverer, app *config.AppConfig, m *metrics.Metrics) *Controller {
	if app == nil {
		app = config.DefaultAppConfig()
	}

	period := time.Duration(app.Sensing.PeriodSeconds) * time.Second
	if period <= 0 {
		period = time.Duration(config.DefaultAppConfig().Sensing.PeriodSeconds) * time.Second
		log.Warnf("invalid sensing period %ds, using %s", app.Sensing.PeriodSeconds, period)
	}

	return &Controller{
		Peripherals: p,
		Link:        link,
		Protocol:    d,
		Gateway:     app.Network.Gateway,
		Period:      period,
		Metrics:     m,
		state:       NewAwakeState(),
		now:         time.Now,
	}
}

func (c *Controller) State() State {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	return c.state
}

// MessageCount is the counter the next message will carry
func (c *Controller) MessageCount() int {
	return c.counter
}

// LastResult is the outcome of the most recent delivery
func (c *Controller) LastResult() delivery.Result {
	return c.lastResult
}

// NextWake is the wake time the schedule is currently anchored to
func (c *Controller) NextWake() time.Time {
	return c.wake
}

func (c *Controller) ProcessCurrentState() State {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	log.WithFields(logrus.Fields{
		"state":   StateToString(c.state.ID()),
		"counter": c.counter,
	}).Debug("handling state")

	c.state = c.state.Handle(c)

	return c.state
}

// Run cycles until Stop is called, which in production never happens
func (c *Controller) Run() {
	log.WithFields(logrus.Fields{
		"gateway": c.Gateway,
		"period":  c.Period,
	}).Info("starting duty cycle")

	for !c.stop.Load() {
		c.ProcessCurrentState()
	}
}

// Stop makes Run return once the current state is handled
func (c *Controller) Stop() {
	c.stop.Store(true)
}

// scheduleNextWake keeps wakes on the grid anchored at the first one, slots
// already in the past are skipped
func (c *Controller) scheduleNextWake() time.Time {
	now := c.now()

	if c.wake.IsZero() {
		c.wake = now
	}

	next := c.wake.Add(c.Period)

	missed := 0
	for !next.After(now) {
		next = next.Add(c.Period)
		missed++
	}

	if missed > 0 {
		log.WithField("missed", missed).Warn("cycle overran its period, skipping wake slots")
	}

	c.wake = next

	return next
}
