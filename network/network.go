/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package network

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/UpdateHub/sensornode/config"
	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/utils"
)

var log = logging.New("network")

// Joiner brings the node onto the configured network
type Joiner interface {
	Join(cfg *config.NetworkConfig) error
}

// NmcliJoiner joins a Wi-Fi network through NetworkManager
type NmcliJoiner struct {
	utils.CmdLineExecuter
}

func NewJoiner() *NmcliJoiner {
	return &NmcliJoiner{CmdLineExecuter: &utils.CmdLine{}}
}

func (nj *NmcliJoiner) Join(cfg *config.NetworkConfig) error {
	if cfg == nil || cfg.WiFi.SSID == "" {
		return errors.New("network record has no ssid")
	}

	cmdline := fmt.Sprintf("nmcli device wifi connect %s", quote(cfg.WiFi.SSID))
	if cfg.WiFi.Password != "" {
		cmdline += fmt.Sprintf(" password %s", quote(cfg.WiFi.Password))
	}

	log.WithField("ssid", cfg.WiFi.SSID).Info("joining network")

	if _, err := nj.Execute(cmdline); err != nil {
		return errors.Wrapf(err, "failed to join network '%s'", cfg.WiFi.SSID)
	}

	return nil
}

func quote(s string) string {
	return "'" + strings.Replace(s, "'", `'"'"'`, -1) + "'"
}
