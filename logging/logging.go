/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package logging

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Setter changes the root logger configuration
type Setter func(*logrus.Logger) error

var root = struct {
	logger *logrus.Logger
	mutex  *sync.Mutex
}{
	logger: logrus.New(),
	mutex:  &sync.Mutex{},
}

// Logger is the logger handed to every component
type Logger interface {
	logrus.FieldLogger
}

// New returns a logger tagged with the component name
func New(component string, setters ...Setter) Logger {
	for _, setter := range setters {
		// no errors handling for now
		_ = Set(setter)
	}
	return root.logger.WithField("component", component)
}

// Set applies a setter to the root logger
func Set(setter Setter) error {
	root.mutex.Lock()
	err := setter(root.logger)
	root.mutex.Unlock()
	return err
}

// Level parses "lvl" and falls back to debug when it is invalid
func Level(lvl string) Setter {
	l, err := logrus.ParseLevel(lvl)
	if err != nil {
		root.logger.WithError(err).Errorf("unable to parse provided level %q", lvl)
		l = logrus.DebugLevel
	}
	return func(r *logrus.Logger) error {
		r.SetLevel(l)
		return nil
	}
}

// Output redirects the root logger
func Output(w io.Writer) Setter {
	return func(r *logrus.Logger) error {
		r.SetOutput(w)
		return nil
	}
}

// Hook attaches a hook (tests use logrus/hooks/test)
func Hook(h logrus.Hook) Setter {
	return func(r *logrus.Logger) error {
		r.AddHook(h)
		return nil
	}
}

// Root exposes the shared logger, mainly for tests
func Root() *logrus.Logger {
	return root.logger
}
