// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus counters and histograms for the
// three pipeline stages, so an operator can watch a long-running index
// without tailing logs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/histogram the pipeline stages touch,
// registered against a private registry so multiple Config instances in
// the same process (as in tests) never collide on metric names.
type Metrics struct {
	registry *prometheus.Registry

	WalkerPathsTotal   *prometheus.CounterVec
	AnalyserRunsTotal  *prometheus.CounterVec
	AnalyserDuration   prometheus.Histogram
	IndexerRunsTotal   *prometheus.CounterVec
	IndexerDuration    prometheus.Histogram
	RemoteCallsTotal   *prometheus.CounterVec
}

// NewMetrics builds a fresh Metrics bound to a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		WalkerPathsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoma_walker_paths_total",
			Help: "Paths classified by the walker, by action (insert/update/delete/noop).",
		}, []string{"action"}),
		AnalyserRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoma_analyser_runs_total",
			Help: "Items processed by the analyser, by outcome (ok/error).",
		}, []string{"outcome"}),
		AnalyserDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stoma_analyser_item_duration_seconds",
			Help:    "Time spent extracting a single item.",
			Buckets: prometheus.DefBuckets,
		}),
		IndexerRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoma_indexer_runs_total",
			Help: "Items processed by the indexer, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		IndexerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stoma_indexer_item_duration_seconds",
			Help:    "Time spent publishing or removing a single document.",
			Buckets: prometheus.DefBuckets,
		}),
		RemoteCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stoma_remote_calls_total",
			Help: "HTTP calls to the extraction/search services, by service and outcome.",
		}, []string{"service", "outcome"}),
	}

	reg.MustRegister(m.WalkerPathsTotal, m.AnalyserRunsTotal, m.AnalyserDuration,
		m.IndexerRunsTotal, m.IndexerDuration, m.RemoteCallsTotal)

	return m
}

// Handler returns the http.Handler serving this Metrics' registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
