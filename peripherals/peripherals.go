/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package peripherals

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/utils"
)

var log = logging.New("peripherals")

type Indicator int

const (
	Activity Indicator = iota
	Heartbeat
)

func (i Indicator) String() string {
	if i == Heartbeat {
		return "heartbeat"
	}

	return "activity"
}

// Peripherals is the handle to the board hardware used by a duty cycle
type Peripherals interface {
	EnableRegulator() error
	DisableRegulator() error
	ReadTemperature() (int, error)
	ReadLight() (int, error)
	SetIndicator(i Indicator, on bool) error
	ToggleIndicator(i Indicator) error
	// SleepUntil blocks until "wake", the only thing that runs meanwhile
	// is the wake timer toggling the heartbeat indicator
	SleepUntil(wake time.Time)
}

// SysfsPeripherals drives the regulator enable line through sysfs GPIO,
// samples IIO ADC channels and switches sysfs LEDs
type SysfsPeripherals struct {
	FileSystemBackend afero.Fs
	Settings          settings.PeripheralsSettings

	sleep func(d time.Duration)
}

func NewSysfsPeripherals(fs afero.Fs, ps settings.PeripheralsSettings) *SysfsPeripherals {
	return &SysfsPeripherals{
		FileSystemBackend: fs,
		Settings:          ps,
		sleep:             time.Sleep,
	}
}

func (sp *SysfsPeripherals) gpioValuePath() string {
	return path.Join(sp.Settings.SysfsRoot, "class", "gpio", fmt.Sprintf("gpio%d", sp.Settings.RegulatorGPIO), "value")
}

func (sp *SysfsPeripherals) channelPath(channel int) string {
	return path.Join(sp.Settings.SysfsRoot, "bus", "iio", "devices", sp.Settings.IIODevice, fmt.Sprintf("in_voltage%d_raw", channel))
}

func (sp *SysfsPeripherals) ledPath(i Indicator) string {
	name := sp.Settings.ActivityLED
	if i == Heartbeat {
		name = sp.Settings.HeartbeatLED
	}

	if name == "" {
		return ""
	}

	return path.Join(sp.Settings.SysfsRoot, "class", "leds", name, "brightness")
}

func (sp *SysfsPeripherals) write(p string, value string) error {
	f, err := sp.FileSystemBackend.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write([]byte(value))

	return err
}

func (sp *SysfsPeripherals) readInt(p string) (int, error) {
	data, err := afero.ReadFile(sp.FileSystemBackend, p)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value in '%s'", p)
	}

	return value, nil
}

func (sp *SysfsPeripherals) setRegulator(on bool) error {
	if sp.Settings.RegulatorGPIO < 0 {
		return nil
	}

	value := "0"
	if on {
		value = "1"
	}

	if err := sp.write(sp.gpioValuePath(), value); err != nil {
		return errors.Wrap(err, "failed to switch regulator")
	}

	return nil
}

func (sp *SysfsPeripherals) EnableRegulator() error {
	return sp.setRegulator(true)
}

func (sp *SysfsPeripherals) DisableRegulator() error {
	return sp.setRegulator(false)
}

func (sp *SysfsPeripherals) readChannel(name string, channel int) (int, error) {
	value, err := sp.readInt(sp.channelPath(channel))
	if err != nil {
		return 0, utils.NewTransientError(utils.KindSensorReadFailure, errors.Wrapf(err, "failed to read %s", name))
	}

	return value, nil
}

func (sp *SysfsPeripherals) ReadTemperature() (int, error) {
	return sp.readChannel("temperature", sp.Settings.TemperatureChannel)
}

func (sp *SysfsPeripherals) ReadLight() (int, error) {
	return sp.readChannel("light", sp.Settings.LightChannel)
}

func (sp *SysfsPeripherals) SetIndicator(i Indicator, on bool) error {
	p := sp.ledPath(i)
	if p == "" {
		return nil
	}

	value := "0"
	if on {
		value = "1"
	}

	return sp.write(p, value)
}

func (sp *SysfsPeripherals) ToggleIndicator(i Indicator) error {
	p := sp.ledPath(i)
	if p == "" {
		return nil
	}

	brightness, err := sp.readInt(p)
	if err != nil {
		return err
	}

	return sp.SetIndicator(i, brightness == 0)
}

func (sp *SysfsPeripherals) SleepUntil(wake time.Time) {
	if d := time.Until(wake); d > 0 {
		sp.sleep(d)
	}

	if err := sp.ToggleIndicator(Heartbeat); err != nil {
		log.Debug("failed to toggle heartbeat: ", err)
	}
}
