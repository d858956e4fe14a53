// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

// Package metrics exposes the collection subsystem's Prometheus metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "vectorcol"
	subsystem = "collection"

	statusLabelName = "status"
	opLabelName     = "op"
)

var (
	// SearchRequestTotal counts Search calls by outcome.
	SearchRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_requests_total",
			Help:      "number of Search calls, partitioned by outcome",
		}, []string{statusLabelName})

	// SearchLatencySeconds observes Search call duration.
	SearchLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_latency_seconds",
			Help:      "Search call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{})

	// SearchSegmentsFanout observes how many segments a single Search
	// call fanned out to.
	SearchSegmentsFanout = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_segments_fanout",
			Help:      "number of segments searched by a single Search call",
			Buckets:   prometheus.LinearBuckets(1, 4, 8),
		})

	// UpdateRequestTotal counts Update calls by operation kind and outcome.
	UpdateRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "update_requests_total",
			Help:      "number of Update calls, partitioned by operation kind and outcome",
		}, []string{opLabelName, statusLabelName})

	// UpdatePointsTouched sums the point/segment touch count Update
	// reports back to the caller.
	UpdatePointsTouched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "update_points_touched_total",
			Help:      "sum of points (or segments, for wipe_payload) touched by Update",
		}, []string{opLabelName})

	// SegmentCount reports the live segment count in a Holder.
	SegmentCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "segment_count",
			Help:      "number of segments currently registered with the holder",
		})

	// TLSCertRefreshTotal counts certificate reload attempts triggered by
	// TTL expiry.
	TLSCertRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "cert_refresh_total",
			Help:      "number of certificate reload attempts after TTL expiry",
		})

	// TLSCertRefreshFailuresTotal counts reload attempts that failed and
	// fell back to the previously loaded certificate.
	TLSCertRefreshFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "cert_refresh_failures_total",
			Help:      "number of certificate reload attempts that failed and kept the stale certificate",
		})
)

// Register adds every collection metric to registry. Call once at process
// startup; registering the same collector twice panics, matching
// prometheus.Registry's own contract.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(SearchRequestTotal)
	registry.MustRegister(SearchLatencySeconds)
	registry.MustRegister(SearchSegmentsFanout)
	registry.MustRegister(UpdateRequestTotal)
	registry.MustRegister(UpdatePointsTouched)
	registry.MustRegister(SegmentCount)
	registry.MustRegister(TLSCertRefreshTotal)
	registry.MustRegister(TLSCertRefreshFailuresTotal)
}
