/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package utils

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeCommand writes an executable script into a temporary directory
func fakeCommand(t *testing.T, script string) string {
	p := path.Join(t.TempDir(), "fake-cmd")
	assert.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0755))
	return p
}

func TestCmdLineExecute(t *testing.T) {
	cmd := fakeCommand(t, "echo \"connected\"\n>&2 echo -n \"warning\"\n")

	output, err := (&CmdLine{}).Execute(cmd + " device wifi connect 'lab'")
	assert.NoError(t, err)
	assert.Equal(t, []byte("connected\nwarning"), output)
}

func TestCmdLineExecuteKeepsQuotedArguments(t *testing.T) {
	cmd := fakeCommand(t, "for a in \"$@\"; do echo \"[$a]\"; done\n")

	output, err := (&CmdLine{}).Execute(cmd + ` connect 'bob'"'"'s lab' password 'p@ss word'`)
	assert.NoError(t, err)
	assert.Equal(t, "[connect]\n[bob's lab]\n[password]\n[p@ss word]\n", string(output))
}

func TestCmdLineExecuteWithExitError(t *testing.T) {
	cmd := fakeCommand(t, ">&2 echo \"Error: No network with SSID 'lab' found.\"\nexit 10\n")

	output, err := (&CmdLine{}).Execute(cmd + " device wifi connect lab")
	assert.EqualError(t, err, "'"+cmd+"' exited with 10: Error: No network with SSID 'lab' found.")
	assert.Equal(t, []byte("Error: No network with SSID 'lab' found.\n"), output)
}

func TestCmdLineExecuteWithCommandNotFound(t *testing.T) {
	output, err := (&CmdLine{}).Execute(path.Join(t.TempDir(), "inexistant"))

	assert.Error(t, err)
	assert.Nil(t, output)
}

func TestCmdLineExecuteWithInvalidCmdLine(t *testing.T) {
	output, err := (&CmdLine{}).Execute(`nmcli device wifi connect "lab`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse command line")
	assert.Nil(t, output)

	output, err = (&CmdLine{}).Execute("   ")
	assert.EqualError(t, err, "empty command line")
	assert.Nil(t, output)
}
