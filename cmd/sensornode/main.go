/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/UpdateHub/sensornode/delivery"
	"github.com/UpdateHub/sensornode/logging"
	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/node"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/transport"
	"github.com/UpdateHub/sensornode/updater"
)

var log = logging.New("main")

type options struct {
	settingsPath string
	logLevel     string

	reboot bool

	address int
	message string
	retries int
	timeout time.Duration
}

func main() {
	opts := &options{}
	fs := afero.NewOsFs()

	rootCmd := &cobra.Command{
		Use:           "sensornode",
		Short:         "Sensor node firmware: module updates and acoustic telemetry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Set(logging.Level(opts.logLevel))
		},
	}

	addGlobalFlags(rootCmd.PersistentFlags(), opts)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the update pass and then the duty cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execRunCmd(fs, opts)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Run one update pass and print the outcome of each module",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execUpdateCmd(fs, opts, os.Stdout)
		},
	}
	updateCmd.Flags().BoolVar(&opts.reboot, "reboot", false, "apply the reboot policy after the pass")

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Deliver one message over the acoustic link",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(fs, opts.settingsPath)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("retries") {
				opts.retries = s.MaxRetries
			}

			if !cmd.Flags().Changed("timeout") {
				opts.timeout = s.DeliverySettings.Timeout
			}

			link, protocol, err := node.NewProtocol(s, nil)
			if err != nil {
				return err
			}

			return execSendCmd(link, protocol, opts, os.Stdout)
		},
	}
	addSendFlags(sendCmd.Flags(), opts)
	_ = sendCmd.MarkFlagRequired("address")
	_ = sendCmd.MarkFlagRequired("message")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the installed version and active slot of each module",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execStatusCmd(fs, opts, os.Stdout)
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func addGlobalFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.settingsPath, "settings", settings.DefaultSettingsPath, "node settings file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warning, error)")
}

func addSendFlags(flags *pflag.FlagSet, opts *options) {
	flags.IntVarP(&opts.address, "address", "a", 0, "destination address (0-255)")
	flags.StringVarP(&opts.message, "message", "m", "", "message payload (2-64 bytes)")
	flags.IntVarP(&opts.retries, "retries", "r", delivery.DefaultMaxRetries, "retries after the first attempt")
	flags.DurationVarP(&opts.timeout, "timeout", "t", delivery.DefaultTimeout, "acknowledgement timeout per attempt")
}

func loadSettings(fs afero.Fs, p string) (*settings.Settings, error) {
	s, err := settings.LoadSettingsFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings '%s': %s", p, err)
	}

	log.Debug("settings: ", s.ToString())

	return s, nil
}

func execRunCmd(fs afero.Fs, opts *options) error {
	s, err := loadSettings(fs, opts.settingsPath)
	if err != nil {
		return err
	}

	n, err := node.New(fs, s)
	if err != nil {
		return err
	}

	n.Boot()

	return nil
}

func execUpdateCmd(fs afero.Fs, opts *options, w io.Writer) error {
	s, err := loadSettings(fs, opts.settingsPath)
	if err != nil {
		return err
	}

	m := metrics.New()

	o, err := node.NewOrchestrator(fs, s, m)
	if err != nil {
		return err
	}

	report := o.Run()
	report.Print(w)

	if err := m.WriteTextfile(s.TextfilePath); err != nil {
		log.Warn("failed to write metrics: ", err)
	}

	if opts.reboot {
		if _, err := o.Restart(report); err != nil {
			return err
		}
	}

	return report.Err()
}

func execSendCmd(link transport.Link, protocol *delivery.Protocol, opts *options, w io.Writer) error {
	if err := link.Init(); err != nil {
		return err
	}
	defer link.Deinit()

	r := protocol.DeliverWith(opts.address, []byte(opts.message), opts.retries, opts.timeout)

	printResult(w, r)

	return r.Err()
}

func printResult(w io.Writer, r delivery.Result) {
	fmt.Fprintf(w, "status=%s retries=%d elapsed=%s", r.Status, r.RetriesUsed, r.Elapsed.Round(time.Millisecond))
	if r.Delivered() {
		fmt.Fprintf(w, " response-time=%s", r.ResponseTime)
	}
	if r.Reason != "" {
		fmt.Fprintf(w, " reason=%q", r.Reason)
	}
	fmt.Fprintln(w)
}

func execStatusCmd(fs afero.Fs, opts *options, w io.Writer) error {
	s, err := loadSettings(fs, opts.settingsPath)
	if err != nil {
		return err
	}

	o := updater.NewOrchestrator(fs, s, nil, nil, nil, nil)

	printStatus(w, o.Status())

	return nil
}

func printStatus(w io.Writer, statuses []updater.ModuleStatus) {
	for _, st := range statuses {
		if st.Err != nil {
			fmt.Fprintf(w, "%-20s error=%q\n", st.Module, st.Err.Error())
			continue
		}

		version := string(st.Version)
		if st.Version.IsZero() {
			version = "none"
		}

		fmt.Fprintf(w, "%-20s slot=%d version=%s\n", st.Module, st.ActiveSlot, version)
	}
}
