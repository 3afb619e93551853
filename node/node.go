/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package node sequences a boot: one update pass, the restart it may
// require, then the duty cycle.
package node

import (
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/updater"
)

var log = logging.New("node")

type Updater interface {
	Run() updater.Report
	Restart(r updater.Report) (bool, error)
}

type Cycler interface {
	Run()
}

type Node struct {
	Store     afero.Fs
	Settings  *settings.Settings
	Updater   Updater
	DutyCycle Cycler
	Metrics   *metrics.Metrics
}

// Boot returns true when the node restarted instead of entering the duty
// cycle, otherwise it only returns if the duty cycle is stopped
func (n *Node) Boot() bool {
	rs := settings.LoadRuntimeSettings(n.Store, n.Settings.RuntimeSettingsPath)

	if rs.UpdatePassCompleted {
		log.WithField("last-pass", rs.LastUpdatePass).Info("update pass completed before the restart, skipping it")

		rs.UpdatePassCompleted = false
		if err := rs.Save(n.Store, n.Settings.RuntimeSettingsPath); err != nil {
			log.Warn("failed to clear update pass flag: ", err)
		}
	} else if n.update() {
		return true
	}

	n.DutyCycle.Run()

	return false
}

func (n *Node) update() bool {
	report := n.Updater.Run()

	if err := n.Metrics.WriteTextfile(n.Settings.TextfilePath); err != nil {
		log.Warn("failed to write metrics: ", err)
	}

	restarted, err := n.Updater.Restart(report)
	if err != nil {
		// the new modules are already active, they load on the next
		// power cycle
		log.Error(err)
		return false
	}

	return restarted
}
