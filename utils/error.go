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
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies the failures the node knows how to absorb
type ErrorKind int

const (
	// KindUnknown is an unclassified failure
	KindUnknown ErrorKind = iota
	// KindConfigMissing means a record is absent, the feature is disabled
	KindConfigMissing
	// KindNetworkUnreachable means the repository could not be reached
	KindNetworkUnreachable
	// KindDownloadIncomplete means the artifact transfer did not finish
	KindDownloadIncomplete
	// KindPromotionInterrupted means the active pointer could not be flipped
	KindPromotionInterrupted
	// KindInvalidRequest means a delivery precondition was violated
	KindInvalidRequest
	// KindDeliveryTimeout means the retry budget was exhausted
	KindDeliveryTimeout
	// KindSensorReadFailure means a sensor could not be sampled
	KindSensorReadFailure
)

var kindNames = map[ErrorKind]string{
	KindUnknown:              "unknown",
	KindConfigMissing:        "config-missing",
	KindNetworkUnreachable:   "network-unreachable",
	KindDownloadIncomplete:   "download-incomplete",
	KindPromotionInterrupted: "promotion-interrupted",
	KindInvalidRequest:       "invalid-request",
	KindDeliveryTimeout:      "delivery-timeout",
	KindSensorReadFailure:    "sensor-read-failure",
}

func (k ErrorKind) String() string {
	return kindNames[k]
}

type NodeErrorReporter interface {
	Cause() error
	IsFatal() bool
	Kind() ErrorKind
	error
}

type NodeError struct {
	cause error
	fatal bool
	kind  ErrorKind
}

func (e *NodeError) Cause() error {
	return e.cause
}

func (e *NodeError) IsFatal() bool {
	return e.fatal
}

func (e *NodeError) Kind() ErrorKind {
	return e.kind
}

func (e *NodeError) Error() string {
	var err error

	if e.fatal {
		err = errors.Wrapf(e.cause, "fatal error")
	} else {
		err = errors.Wrapf(e.cause, "%s", e.kind)
	}

	return err.Error()
}

func NewFatalError(err error) NodeErrorReporter {
	return &NodeError{
		cause: err,
		fatal: true,
	}
}

func NewTransientError(kind ErrorKind, err error) NodeErrorReporter {
	return &NodeError{
		cause: err,
		fatal: false,
		kind:  kind,
	}
}

// KindOf returns the kind of err, KindUnknown when it isn't a NodeError
func KindOf(err error) ErrorKind {
	if ne, ok := err.(NodeErrorReporter); ok {
		return ne.Kind()
	}

	return KindUnknown
}

func MergeErrorList(errorList []error) error {
	if len(errorList) == 0 {
		return nil
	}

	if len(errorList) == 1 {
		return errorList[0]
	}

	errorMessages := []string{}
	for _, err := range errorList {
		errorMessages = append(errorMessages, fmt.Sprintf("(%v)", err))
	}

	return fmt.Errorf("%s", strings.Join(errorMessages[:], "; "))
}
