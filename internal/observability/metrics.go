// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrisetu/agrisetu/internal/account"
)

// Metrics contains the account lifecycle metrics.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
	OTPSweptTotal   prometheus.Counter
}

// NewMetrics creates and registers the account lifecycle metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrisetu_credential_operations_total",
				Help: "Credential operations by operation and outcome code",
			},
			[]string{"operation", "outcome"},
		),
		OTPSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agrisetu_otp_swept_total",
				Help: "Recovery codes deleted by the sweeper",
			},
		),
	}

	reg.MustRegister(m.OperationsTotal)
	reg.MustRegister(m.OTPSweptTotal)

	return m
}

// Record counts one finished operation.
func (m *Metrics) Record(operation, outcome string) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Swept adds the codes removed by one sweep.
func (m *Metrics) Swept(n int64) {
	if n > 0 {
		m.OTPSweptTotal.Add(float64(n))
	}
}

var (
	_ account.OutcomeRecorder = (*Metrics)(nil)
	_ account.SweepObserver   = (*Metrics)(nil)
)
