/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package utils

import (
	"os/exec"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

// CmdLineExecuter runs a shell-quoted command line without a shell
type CmdLineExecuter interface {
	Execute(cmdline string) ([]byte, error)
}

type CmdLine struct {
}

// Execute returns the combined output, on a non-zero exit the output is
// also carried by the error
func (cl *CmdLine) Execute(cmdline string) ([]byte, error) {
	args, err := shellwords.Parse(cmdline)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse command line '%s'", cmdline)
	}

	if len(args) == 0 {
		return nil, errors.New("empty command line")
	}

	output, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return output, errors.Errorf("'%s' exited with %d: %s", args[0], exitErr.ExitCode(), strings.TrimSpace(string(output)))
	}

	return output, err
}
