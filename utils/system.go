/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package utils

import (
	"net/url"
	"strings"
)

// RebootCommand is the hard restart primitive of the node
const RebootCommand = "/sbin/reboot -f"

type Rebooter interface {
	Reboot() error
}

type RebooterImpl struct {
	CmdLineExecuter
}

func NewRebooter() *RebooterImpl {
	return &RebooterImpl{CmdLineExecuter: &CmdLine{}}
}

func (r *RebooterImpl) Reboot() error {
	_, err := r.Execute(RebootCommand)

	return err
}

// SanitizeServerAddress defaults to https when no scheme is given
func SanitizeServerAddress(address string) (string, error) {
	a := address
	if !strings.HasPrefix(a, "http://") && !strings.HasPrefix(a, "https://") {
		a = "https://" + a
	}

	serverURL, err := url.Parse(a)
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(serverURL.String(), "/"), nil
}
