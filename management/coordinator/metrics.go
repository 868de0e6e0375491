// Copyright 2025 The Fluxa Authors, Inc.
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

package coordinator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxa_mutations_total",
			Help: "Mutations run through the coordinator, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	mutationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxa_mutation_duration_seconds",
			Help:    "Time from precondition to completed refresh.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(mutationsTotal, mutationDuration)
}

func observe(kind, outcome string, elapsed time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	mutationsTotal.WithLabelValues(kind, outcome).Inc()
	mutationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
