/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package settings

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/utils"
)

const (
	// DefaultSettingsPath is where the node settings live
	DefaultSettingsPath = "/etc/sensornode.conf"

	RebootPolicyAlways   = "always"
	RebootPolicyOnChange = "on-change"
)

type Settings struct {
	StorageSettings     `ini:"Storage" json:"storage"`
	UpdateSettings      `ini:"Update" json:"update"`
	RepositorySettings  `ini:"Repository" json:"repository"`
	LinkSettings        `ini:"Link" json:"link"`
	DeliverySettings    `ini:"Delivery" json:"delivery"`
	PeripheralsSettings `ini:"Peripherals" json:"peripherals"`
	MetricsSettings     `ini:"Metrics" json:"metrics"`
}

type StorageSettings struct {
	ModulesDir          string `ini:"ModulesDir" json:"modules-dir"`
	ConfigDir           string `ini:"ConfigDir" json:"config-dir"`
	RuntimeSettingsPath string `ini:"RuntimeSettingsPath" json:"runtime-settings-path"`
}

type UpdateSettings struct {
	Modules         []string      `ini:"Modules" json:"modules"`
	RebootPolicy    string        `ini:"RebootPolicy" json:"reboot-policy"`
	DownloadTimeout time.Duration `ini:"DownloadTimeout" json:"download-timeout"`
}

type RepositorySettings struct {
	GitHubAPI   string `ini:"GitHubAPI" json:"github-api"`
	S3Endpoint  string `ini:"S3Endpoint" json:"s3-endpoint"`
	S3AccessKey string `ini:"S3AccessKey" json:"-"`
	S3SecretKey string `ini:"S3SecretKey" json:"-"`
	S3UseSSL    bool   `ini:"S3UseSSL" json:"s3-use-ssl"`
}

type LinkSettings struct {
	Device      string        `ini:"Device" json:"device"`
	BaudRate    int           `ini:"BaudRate" json:"baud-rate"`
	DataBits    int           `ini:"DataBits" json:"data-bits"`
	Parity      string        `ini:"Parity" json:"parity"`
	StopBits    int           `ini:"StopBits" json:"stop-bits"`
	ReadTimeout time.Duration `ini:"ReadTimeout" json:"read-timeout"`
}

type DeliverySettings struct {
	MaxRetries int           `ini:"MaxRetries" json:"max-retries"`
	Timeout    time.Duration `ini:"Timeout" json:"timeout"`
}

type PeripheralsSettings struct {
	SysfsRoot          string `ini:"SysfsRoot" json:"sysfs-root"`
	RegulatorGPIO      int    `ini:"RegulatorGPIO" json:"regulator-gpio"`
	IIODevice          string `ini:"IIODevice" json:"iio-device"`
	TemperatureChannel int    `ini:"TemperatureChannel" json:"temperature-channel"`
	LightChannel       int    `ini:"LightChannel" json:"light-channel"`
	ActivityLED        string `ini:"ActivityLED" json:"activity-led"`
	HeartbeatLED       string `ini:"HeartbeatLED" json:"heartbeat-led"`
}

type MetricsSettings struct {
	TextfilePath string `ini:"TextfilePath" json:"textfile-path"`
}

// RuntimeSettings survive restarts and are rewritten by the node itself
type RuntimeSettings struct {
	BootSettings `ini:"Boot"`
}

type BootSettings struct {
	// UpdatePassCompleted is set right before the restart that follows an
	// update pass and cleared by the next boot
	UpdatePassCompleted bool      `ini:"UpdatePassCompleted"`
	LastUpdatePass      time.Time `ini:"LastUpdatePass"`
}

func init() {
	ini.PrettyFormat = false
}

// Default returns the settings used when no file overrides them
func Default() *Settings {
	return &Settings{
		StorageSettings: StorageSettings{
			ModulesDir:          "/var/lib/sensornode/modules",
			ConfigDir:           "/var/lib/sensornode/config",
			RuntimeSettingsPath: "/var/lib/sensornode/runtime.conf",
		},

		UpdateSettings: UpdateSettings{
			Modules:         []string{"unm3_pybd"},
			RebootPolicy:    RebootPolicyAlways,
			DownloadTimeout: 30 * time.Second,
		},

		RepositorySettings: RepositorySettings{
			GitHubAPI: "https://api.github.com",
			S3UseSSL:  true,
		},

		LinkSettings: LinkSettings{
			Device:      "/dev/ttyS1",
			BaudRate:    9600,
			DataBits:    8,
			Parity:      "none",
			StopBits:    1,
			ReadTimeout: time.Second,
		},

		DeliverySettings: DeliverySettings{
			MaxRetries: 3,
			Timeout:    5 * time.Second,
		},

		PeripheralsSettings: PeripheralsSettings{
			SysfsRoot:          "/sys",
			RegulatorGPIO:      -1,
			IIODevice:          "iio:device0",
			TemperatureChannel: 0,
			LightChannel:       1,
			ActivityLED:        "",
			HeartbeatLED:       "",
		},
	}
}

func LoadSettings(r io.Reader) (*Settings, error) {
	cfg, err := ini.Load(ioutil.NopCloser(r))
	if err != nil || cfg == nil {
		return nil, err
	}

	s := Default()

	err = cfg.MapTo(s)
	if err != nil {
		return nil, err
	}

	// MapTo leaves non-positive durations at their defaults
	durations := []struct {
		section string
		key     string
		value   *time.Duration
	}{
		{"Update", "DownloadTimeout", &s.DownloadTimeout},
		{"Link", "ReadTimeout", &s.ReadTimeout},
		{"Delivery", "Timeout", &s.DeliverySettings.Timeout},
	}

	for _, d := range durations {
		section := cfg.Section(d.section)
		if !section.HasKey(d.key) {
			continue
		}

		*d.value, err = section.Key(d.key).Duration()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s.%s", d.section, d.key)
		}
	}

	if err = s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// LoadSettingsFile reads the settings from "path", a missing file yields the defaults
func LoadSettingsFile(fs afero.Fs, path string) (*Settings, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}

	if !exists {
		return Default(), nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadSettings(f)
}

func (s *Settings) Validate() error {
	switch s.RebootPolicy {
	case RebootPolicyAlways, RebootPolicyOnChange:
	default:
		return errors.Errorf("invalid reboot policy: %q", s.RebootPolicy)
	}

	if s.MaxRetries < 0 {
		return errors.Errorf("delivery retries can't be negative: %d", s.MaxRetries)
	}

	if s.DownloadTimeout <= 0 {
		return errors.Errorf("download timeout must be positive: %s", s.DownloadTimeout)
	}

	if s.ReadTimeout <= 0 {
		return errors.Errorf("link read timeout must be positive: %s", s.ReadTimeout)
	}

	if s.DeliverySettings.Timeout <= 0 {
		return errors.Errorf("delivery timeout must be positive: %s", s.DeliverySettings.Timeout)
	}

	return nil
}

func (s *Settings) ToString() string {
	output, _ := json.MarshalIndent(s, "", "    ")
	return string(output)
}

// LoadRuntimeSettings never fails: a missing or broken file is a fresh node
func LoadRuntimeSettings(fs afero.Fs, path string) *RuntimeSettings {
	rs := &RuntimeSettings{}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return rs
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return rs
	}

	if err := cfg.MapTo(rs); err != nil {
		return &RuntimeSettings{}
	}

	return rs
}

func SaveRuntimeSettings(rs *RuntimeSettings, w io.Writer) error {
	cfg := ini.Empty()

	err := ini.ReflectFrom(cfg, rs)
	if err != nil {
		return err
	}

	_, err = cfg.WriteTo(w)
	if err != nil {
		return err
	}

	return nil
}

// Save writes the runtime settings so that a power cut never leaves a
// truncated file behind
func (rs *RuntimeSettings) Save(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"

	f, err := fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if err = SaveRuntimeSettings(rs, f); err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		fs.Remove(tmp)
		return err
	}

	if err = fs.Rename(tmp, path); err != nil {
		return err
	}

	return utils.SyncDir(fs, filepath.Dir(path))
}
