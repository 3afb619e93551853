/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/UpdateHub/sensornode/metadata"
	"github.com/UpdateHub/sensornode/testsmocks/fsmock"
)

func TestLoadNetworkConfig(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, ok := LoadNetworkConfig(fs, "/config")
	assert.False(t, ok)
	assert.Nil(t, cfg)

	err := afero.WriteFile(fs, "/config/wifi_cfg.json", []byte(`{"wifi":{"ssid":"lab","password":"pw"}}`), 0644)
	assert.NoError(t, err)

	cfg, ok = LoadNetworkConfig(fs, "/config")
	assert.True(t, ok)
	assert.Equal(t, "lab", cfg.WiFi.SSID)
	assert.Equal(t, "pw", cfg.WiFi.Password)
}

func TestLoadNetworkConfigMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"InvalidJSON", `{"wifi":`},
		{"MissingSSID", `{"wifi":{"password":"pw"}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			assert.NoError(t, afero.WriteFile(fs, "/config/wifi_cfg.json", []byte(tc.data), 0644))

			cfg, ok := LoadNetworkConfig(fs, "/config")
			assert.False(t, ok)
			assert.Nil(t, cfg)
		})
	}
}

func TestModuleDescriptors(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := afero.WriteFile(fs, ModuleConfigPath("/modules", "unm3_pybd"),
		[]byte(`{"gitrepos":{"url":"https://github.com/bensherlock/micropython-unm3-pybd"}}`), 0644)
	assert.NoError(t, err)

	err = afero.WriteFile(fs, ModuleConfigPath("/modules", "app"),
		[]byte(`{"gitrepos":{"url":"s3://firmware/app"}}`), 0644)
	assert.NoError(t, err)

	descriptors := ModuleDescriptors(fs, "/modules", []string{"unm3_pybd", "missing", "app"})

	assert.Equal(t, []metadata.ModuleDescriptor{
		{Name: "unm3_pybd", RepositoryURL: "https://github.com/bensherlock/micropython-unm3-pybd"},
		{Name: "app", RepositoryURL: "s3://firmware/app"},
	}, descriptors)
}

func TestModuleConfigPath(t *testing.T) {
	assert.Equal(t, "/modules/unm3_pybd/unm3_pybd_gitrepos_cfg.json", ModuleConfigPath("/modules", "unm3_pybd"))
}

func TestLoadOrCreateAppConfigPersistsDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := "/config/app_cfg.json"

	cfg := LoadOrCreateAppConfig(fs, p)
	assert.Equal(t, 7, cfg.Network.Gateway)
	assert.Equal(t, 60, cfg.Sensing.PeriodSeconds)

	data, err := afero.ReadFile(fs, p)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"network":{"gateway":7},"sensing":{"period_s":60}}`, string(data))
}

func TestSaveAppConfigSyncsConfigDir(t *testing.T) {
	fs := fsmock.NewSyncRecorder(afero.NewMemMapFs())
	p := "/config/app_cfg.json"

	assert.NoError(t, SaveAppConfig(fs, p, DefaultAppConfig()))

	assert.Equal(t, []string{
		"sync /config/app_cfg.json.tmp",
		"rename /config/app_cfg.json",
		"sync /config",
	}, fs.Events())

	exists, _ := afero.Exists(fs, p+".tmp")
	assert.False(t, exists)
}

func TestLoadOrCreateAppConfigKeepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := "/config/app_cfg.json"
	assert.NoError(t, afero.WriteFile(fs, p, []byte(`{"network":{"gateway":12},"sensing":{"period_s":300}}`), 0644))

	cfg := LoadOrCreateAppConfig(fs, p)
	assert.Equal(t, 12, cfg.Network.Gateway)
	assert.Equal(t, 300, cfg.Sensing.PeriodSeconds)
}

func TestLoadOrCreateAppConfigWithReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	cfg := LoadOrCreateAppConfig(fs, "/config/app_cfg.json")
	assert.Equal(t, DefaultAppConfig(), cfg)
}
