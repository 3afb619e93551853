/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package config reads the JSON records deployed next to the node: the
// network credentials, the per-module update source and the application
// record. A missing or malformed record is reported as "not present" and
// never as an error, the caller disables the matching feature.
package config

import (
	"encoding/json"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/utils"
)

const (
	NetworkConfigFilename = "wifi_cfg.json"
	AppConfigFilename     = "app_cfg.json"

	defaultGatewayAddress = 7
	defaultPeriodSeconds  = 60
)

var log = logging.New("config")

type NetworkConfig struct {
	WiFi struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
	} `json:"wifi"`
}

type ModuleConfig struct {
	GitRepos struct {
		URL string `json:"url"`
	} `json:"gitrepos"`
}

type AppConfig struct {
	Network struct {
		Gateway int `json:"gateway"`
	} `json:"network"`
	Sensing struct {
		PeriodSeconds int `json:"period_s"`
	} `json:"sensing"`
}

func DefaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Network.Gateway = defaultGatewayAddress
	cfg.Sensing.PeriodSeconds = defaultPeriodSeconds
	return cfg
}

func loadJSON(fs afero.Fs, p string, v interface{}) bool {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("couldn't read %s", p)
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		log.WithError(err).Warnf("ignoring malformed record %s", p)
		return false
	}

	return true
}

// LoadNetworkConfig returns the credentials record, ok is false when the
// node has no connectivity configured
func LoadNetworkConfig(fs afero.Fs, configDir string) (*NetworkConfig, bool) {
	cfg := &NetworkConfig{}
	if !loadJSON(fs, path.Join(configDir, NetworkConfigFilename), cfg) {
		return nil, false
	}

	if cfg.WiFi.SSID == "" {
		return nil, false
	}

	return cfg, true
}

func ModuleConfigPath(modulesDir, name string) string {
	return path.Join(modulesDir, name, name+"_gitrepos_cfg.json")
}

func LoadModuleConfig(fs afero.Fs, modulesDir, name string) (*ModuleConfig, bool) {
	cfg := &ModuleConfig{}
	if !loadJSON(fs, ModuleConfigPath(modulesDir, name), cfg) {
		return nil, false
	}

	if cfg.GitRepos.URL == "" {
		return nil, false
	}

	return cfg, true
}

// ModuleDescriptors builds the ordered descriptor list, modules without
// an update source are skipped
func ModuleDescriptors(fs afero.Fs, modulesDir string, names []string) []metadata.ModuleDescriptor {
	descriptors := []metadata.ModuleDescriptor{}

	for _, name := range names {
		cfg, ok := LoadModuleConfig(fs, modulesDir, name)
		if !ok {
			log.WithField("module", name).Info("no update source configured, module skipped")
			continue
		}

		descriptors = append(descriptors, metadata.ModuleDescriptor{
			Name:          name,
			RepositoryURL: cfg.GitRepos.URL,
		})
	}

	return descriptors
}

func LoadAppConfig(fs afero.Fs, p string) (*AppConfig, bool) {
	cfg := &AppConfig{}
	if !loadJSON(fs, p, cfg) {
		return nil, false
	}

	return cfg, true
}

func SaveAppConfig(fs afero.Fs, p string, cfg *AppConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return err
	}

	tmp := p + ".tmp"

	f, err := fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		fs.Remove(tmp)
		return err
	}

	if err := fs.Rename(tmp, p); err != nil {
		return err
	}

	return utils.SyncDir(fs, path.Dir(p))
}

// LoadOrCreateAppConfig falls back to the default record and persists it
func LoadOrCreateAppConfig(fs afero.Fs, p string) *AppConfig {
	if cfg, ok := LoadAppConfig(fs, p); ok {
		return cfg
	}

	cfg := DefaultAppConfig()
	if err := SaveAppConfig(fs, p, cfg); err != nil {
		log.WithError(err).Warn("couldn't persist default application config")
	}

	return cfg
}
