/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package metrics keeps the node telemetry. There is no scrape endpoint,
// the registry is dumped in the node_exporter textfile format instead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	Deliveries       *prometheus.CounterVec
	DeliveryRetries  prometheus.Counter
	DeliveryDuration prometheus.Histogram
	SensorFailures   *prometheus.CounterVec
	MessageCounter   prometheus.Gauge
	UpdateOutcomes   *prometheus.CounterVec
	LastUpdatePass   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensornode_deliveries_total",
				Help: "Message deliveries by final status.",
			},
			[]string{"status"},
		),

		DeliveryRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sensornode_delivery_retries_total",
				Help: "Retries consumed by message deliveries.",
			},
		),

		DeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sensornode_delivery_duration_seconds",
				Help:    "Wall-clock time spent in one delivery, all attempts included.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
		),

		SensorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensornode_sensor_read_failures_total",
				Help: "Failed sensor reads.",
			},
			[]string{"sensor"},
		),

		MessageCounter: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sensornode_message_counter",
				Help: "Counter embedded in the last status message.",
			},
		),

		UpdateOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensornode_update_outcomes_total",
				Help: "Update pass outcomes per module.",
			},
			[]string{"module", "outcome"},
		),

		LastUpdatePass: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sensornode_last_update_pass_timestamp_seconds",
				Help: "Unix time of the last update pass.",
			},
		),
	}

	m.registry.MustRegister(
		m.Deliveries,
		m.DeliveryRetries,
		m.DeliveryDuration,
		m.SensorFailures,
		m.MessageCounter,
		m.UpdateOutcomes,
		m.LastUpdatePass,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The observers below accept a nil *Metrics so components can run
// without telemetry.

func (m *Metrics) ObserveDelivery(status string, retries int, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.Deliveries.WithLabelValues(status).Inc()
	m.DeliveryRetries.Add(float64(retries))
	m.DeliveryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSensorFailure(sensor string) {
	if m == nil {
		return
	}

	m.SensorFailures.WithLabelValues(sensor).Inc()
}

func (m *Metrics) SetMessageCounter(count int) {
	if m == nil {
		return
	}

	m.MessageCounter.Set(float64(count))
}

func (m *Metrics) ObserveUpdateOutcome(module, outcome string) {
	if m == nil {
		return
	}

	m.UpdateOutcomes.WithLabelValues(module, outcome).Inc()
}

func (m *Metrics) ObserveUpdatePass(at time.Time) {
	if m == nil {
		return
	}

	m.LastUpdatePass.Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry to path, doing nothing when path is
// empty
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	return prometheus.WriteToTextfile(path, m.registry)
}
