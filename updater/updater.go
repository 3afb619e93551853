/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package updater

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/activeinactive"
	"github.com/UpdateHub/sensornode/artifact"
	"github.com/UpdateHub/sensornode/client"
	"github.com/UpdateHub/sensornode/config"
	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/network"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	// DownloadFilename is where an artifact is streamed before extraction
	DownloadFilename = ".download"
	// DownloadVersionFilename names the version a partial download belongs to
	DownloadVersionFilename = ".download.version"
)

var log = logging.New("updater")

// Orchestrator runs the update pass over every configured module
type Orchestrator struct {
	Store      afero.Fs
	Settings   *settings.Settings
	Repository client.Repository
	Joiner     network.Joiner
	Rebooter   utils.Rebooter
	Metrics    *metrics.Metrics
}

func NewOrchestrator(fs afero.Fs, s *settings.Settings, repo client.Repository, joiner network.Joiner, rebooter utils.Rebooter, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		Store:      fs,
		Settings:   s,
		Repository: repo,
		Joiner:     joiner,
		Rebooter:   rebooter,
		Metrics:    m,
	}
}

func (o *Orchestrator) moduleDir(m metadata.ModuleDescriptor) string {
	return path.Join(o.Settings.ModulesDir, m.Name)
}

func (o *Orchestrator) slots(m metadata.ModuleDescriptor) *activeinactive.DefaultImpl {
	return activeinactive.New(o.Store, o.moduleDir(m))
}

// Run checks, stages and promotes every module. Failures are confined
// to the module they happen in and reported in its outcome.
func (o *Orchestrator) Run() Report {
	report := Report{StartedAt: time.Now()}

	modules := config.ModuleDescriptors(o.Store, o.Settings.ModulesDir, o.Settings.Modules)

	netcfg, ok := config.LoadNetworkConfig(o.Store, o.Settings.ConfigDir)
	if !ok {
		log.Info("no network configuration, skipping update pass")

		report.Offline = true
		for _, m := range modules {
			report.Modules = append(report.Modules, ModuleReport{Module: m.Name, Outcome: OutcomeOffline})
		}

		return report
	}

	if len(modules) == 0 {
		log.Info("no module has an update source")
		return report
	}

	defer o.Metrics.ObserveUpdatePass(report.StartedAt)

	if err := o.Joiner.Join(netcfg); err != nil {
		err = utils.NewTransientError(utils.KindNetworkUnreachable, err)
		log.Warn(err)

		for _, m := range modules {
			report.Modules = append(report.Modules, ModuleReport{Module: m.Name, Outcome: OutcomeFailed, Err: err})
			o.Metrics.ObserveUpdateOutcome(m.Name, string(OutcomeFailed))
		}

		return report
	}

	for _, m := range modules {
		mr := o.processModule(m)

		fields := logrus.Fields{
			"module":    mr.Module,
			"installed": mr.Installed,
			"available": mr.Available,
			"outcome":   mr.Outcome,
		}
		if mr.Err != nil {
			log.WithFields(fields).Warn(mr.Err)
		} else {
			log.WithFields(fields).Info("module processed")
		}

		o.Metrics.ObserveUpdateOutcome(mr.Module, string(mr.Outcome))
		report.Modules = append(report.Modules, mr)
	}

	return report
}

func (o *Orchestrator) processModule(m metadata.ModuleDescriptor) ModuleReport {
	t := newModuleTracker(m.Name)
	mr := ModuleReport{Module: m.Name}

	t.fire(EventCheck)

	installed, latest, err := o.CheckModule(m)
	mr.Installed, mr.Available = installed, latest
	if err != nil {
		t.fire(EventFail)
		mr.Outcome, mr.Err = t.Outcome(), err
		return mr
	}

	if !latest.IsNewerThan(installed) {
		t.fire(EventCurrent)
		mr.Outcome = t.Outcome()
		return mr
	}

	t.fire(EventNewer)

	staged, err := o.StageModule(m, latest)
	if err != nil {
		t.fire(EventFail)
		mr.Outcome, mr.Err = t.Outcome(), err
		return mr
	}

	t.fire(EventDownloaded)

	if err := o.PromoteModule(staged); err != nil {
		t.fire(EventFail)
		mr.Outcome, mr.Err = t.Outcome(), err
		return mr
	}

	t.fire(EventPromote)
	mr.Outcome = t.Outcome()

	return mr
}

// InstalledVersion returns the version held by the active slot, the zero
// version when the module was never installed
func (o *Orchestrator) InstalledVersion(m metadata.ModuleDescriptor) (metadata.VersionInfo, int, error) {
	ai := o.slots(m)

	active, err := ai.Active()
	if err != nil {
		return "", 0, err
	}

	manifest, err := metadata.ReadManifest(o.Store, ai.SlotPath(active))
	if err != nil {
		return "", active, errors.Wrapf(err, "failed to read manifest of slot %d", active)
	}

	if manifest == nil {
		return "", active, nil
	}

	return manifest.Version, active, nil
}

// CheckModule returns the installed version and the latest one published
// by the module repository
func (o *Orchestrator) CheckModule(m metadata.ModuleDescriptor) (metadata.VersionInfo, metadata.VersionInfo, error) {
	installed, _, err := o.InstalledVersion(m)
	if err != nil {
		return "", "", err
	}

	latest, err := o.Repository.LatestVersion(m.RepositoryURL)
	if err != nil {
		if utils.KindOf(err) == utils.KindUnknown {
			err = utils.NewTransientError(utils.KindNetworkUnreachable, err)
		}

		return installed, "", err
	}

	return installed, latest, nil
}

// StageModule downloads "target" and unpacks it into the inactive slot.
// The active slot is never touched.
func (o *Orchestrator) StageModule(m metadata.ModuleDescriptor, target metadata.VersionInfo) (*metadata.StagedUpdate, error) {
	moduleDir := o.moduleDir(m)
	ai := o.slots(m)

	slot, err := activeinactive.Inactive(ai)
	if err != nil {
		return nil, err
	}

	download := path.Join(moduleDir, DownloadFilename)

	if err := o.prepareDownload(moduleDir, target); err != nil {
		return nil, err
	}

	if err := o.Repository.Fetch(m.RepositoryURL, target, o.Store, download); err != nil {
		if utils.KindOf(err) == utils.KindUnknown {
			err = utils.NewTransientError(utils.KindDownloadIncomplete, err)
		}

		return nil, err
	}

	sha256sum, err := utils.FileSha256sum(o.Store, download)
	if err != nil {
		return nil, err
	}

	slotDir := ai.SlotPath(slot)

	if err := o.Store.RemoveAll(slotDir); err != nil {
		return nil, errors.Wrapf(err, "failed to clean slot %d", slot)
	}

	rd, err := o.Store.Open(download)
	if err != nil {
		return nil, err
	}

	err = artifact.Extract(o.Store, rd, slotDir)
	rd.Close()

	if err != nil {
		// the artifact is complete but unusable, start over next time
		o.discardDownload(moduleDir)
		return nil, utils.NewTransientError(utils.KindDownloadIncomplete, err)
	}

	manifest := &metadata.SlotManifest{
		Version:     target,
		Sha256sum:   sha256sum,
		InstalledAt: time.Now().UTC(),
	}

	if err := metadata.WriteManifest(o.Store, slotDir, manifest); err != nil {
		return nil, errors.Wrap(err, "failed to write slot manifest")
	}

	o.discardDownload(moduleDir)

	return &metadata.StagedUpdate{
		Module:        m,
		TargetVersion: target,
		StagingPath:   slotDir,
		Slot:          slot,
		Sha256sum:     sha256sum,
	}, nil
}

// prepareDownload drops a partial download that belongs to another version
func (o *Orchestrator) prepareDownload(moduleDir string, target metadata.VersionInfo) error {
	if err := o.Store.MkdirAll(moduleDir, 0755); err != nil {
		return err
	}

	versionPath := path.Join(moduleDir, DownloadVersionFilename)

	data, err := afero.ReadFile(o.Store, versionPath)
	if err == nil && target.Equal(metadata.VersionInfo(strings.TrimSpace(string(data)))) {
		log.WithField("version", target).Debug("partial download found")
		return nil
	}

	o.discardDownload(moduleDir)

	return afero.WriteFile(o.Store, versionPath, []byte(target.String()), 0644)
}

func (o *Orchestrator) discardDownload(moduleDir string) {
	for _, name := range []string{DownloadFilename, DownloadVersionFilename} {
		if err := o.Store.Remove(path.Join(moduleDir, name)); err != nil && !os.IsNotExist(err) {
			log.Warn(err)
		}
	}
}

// PromoteModule flips the active pointer to the staged slot. This is the
// only step that changes what the application runs.
func (o *Orchestrator) PromoteModule(staged *metadata.StagedUpdate) error {
	manifest, err := metadata.ReadManifest(o.Store, staged.StagingPath)
	if err != nil || manifest == nil || !manifest.Version.Equal(staged.TargetVersion) {
		return utils.NewTransientError(utils.KindPromotionInterrupted, errors.New("staged slot is incomplete"))
	}

	ai := o.slots(staged.Module)

	if err := ai.SetActive(staged.Slot); err != nil {
		return utils.NewTransientError(utils.KindPromotionInterrupted, err)
	}

	log.WithFields(logrus.Fields{
		"module":  staged.Module.Name,
		"version": staged.TargetVersion,
		"slot":    staged.Slot,
	}).Info("module promoted")

	return nil
}

// Restart applies the reboot policy to the result of a pass. It returns
// whether a restart was requested.
func (o *Orchestrator) Restart(r Report) (bool, error) {
	if r.Offline {
		return false, nil
	}

	if o.Settings.RebootPolicy == settings.RebootPolicyOnChange && !r.Updated() {
		log.Info("nothing changed, skipping restart")
		return false, nil
	}

	rs := settings.LoadRuntimeSettings(o.Store, o.Settings.RuntimeSettingsPath)
	rs.UpdatePassCompleted = true
	rs.LastUpdatePass = r.StartedAt

	if err := rs.Save(o.Store, o.Settings.RuntimeSettingsPath); err != nil {
		if !r.Updated() {
			// without the flag the next boot would run the pass and
			// restart again
			log.Warn("failed to persist update pass, skipping restart: ", err)
			return false, nil
		}

		log.Warn("failed to persist update pass: ", err)
	}

	log.Info("restarting after update pass")

	if err := o.Rebooter.Reboot(); err != nil {
		return false, errors.Wrap(err, "failed to restart")
	}

	return true, nil
}

// ModuleStatus describes what a module currently runs
type ModuleStatus struct {
	Module     string
	ActiveSlot int
	Version    metadata.VersionInfo
	Err        error
}

func (o *Orchestrator) Status() []ModuleStatus {
	statuses := []ModuleStatus{}

	for _, name := range o.Settings.Modules {
		m := metadata.ModuleDescriptor{Name: name}

		v, active, err := o.InstalledVersion(m)
		statuses = append(statuses, ModuleStatus{Module: name, ActiveSlot: active, Version: v, Err: err})
	}

	return statuses
}
