/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package node

import (
	"path"

	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/client"
	"github.com/UpdateHub/sensornode/config"
	"github.com/UpdateHub/sensornode/delivery"
	"github.com/UpdateHub/sensornode/dutycycle"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/network"
	"github.com/UpdateHub/sensornode/peripherals"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/transport"
	"github.com/UpdateHub/sensornode/updater"
	"github.com/UpdateHub/sensornode/utils"
)

// NewOrchestrator wires the update orchestrator to the real repository
// backends, nmcli and the reboot command
func NewOrchestrator(fs afero.Fs, s *settings.Settings, m *metrics.Metrics) (*updater.Orchestrator, error) {
	repo, err := client.NewRepository(s)
	if err != nil {
		return nil, err
	}

	return updater.NewOrchestrator(fs, s, repo, network.NewJoiner(), utils.NewRebooter(), m), nil
}

// NewProtocol opens nothing, the serial port is only opened by Link.Init
func NewProtocol(s *settings.Settings, m *metrics.Metrics) (*transport.SerialLink, *delivery.Protocol, error) {
	link, err := transport.NewSerialLink(s.LinkSettings)
	if err != nil {
		return nil, nil, err
	}

	return link, delivery.NewProtocol(link, s.DeliverySettings, m), nil
}

// NewController builds the duty cycle from the application record found
// in the config directory, the default record is created when missing
func NewController(fs afero.Fs, s *settings.Settings, m *metrics.Metrics) (*dutycycle.Controller, error) {
	link, protocol, err := NewProtocol(s, m)
	if err != nil {
		return nil, err
	}

	app := config.LoadOrCreateAppConfig(fs, path.Join(s.ConfigDir, config.AppConfigFilename))

	c := dutycycle.NewController(peripherals.NewSysfsPeripherals(fs, s.PeripheralsSettings), link, protocol, app, m)
	c.MetricsTextfile = s.TextfilePath

	return c, nil
}

// New assembles a node running on "fs", a failure here means the node
// can't run at all
func New(fs afero.Fs, s *settings.Settings) (*Node, error) {
	m := metrics.New()

	o, err := NewOrchestrator(fs, s, m)
	if err != nil {
		return nil, utils.NewFatalError(err)
	}

	c, err := NewController(fs, s, m)
	if err != nil {
		return nil, utils.NewFatalError(err)
	}

	return &Node{
		Store:     fs,
		Settings:  s,
		Updater:   o,
		DutyCycle: c,
		Metrics:   m,
	}, nil
}
