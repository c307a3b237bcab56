// Package metrics provides Prometheus metrics for the credential ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OperationIssue  = "issue"
	OperationVerify = "verify"
)

// Verification outcome labels.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
)

// Metrics contains all ledger metrics.
type Metrics struct {
	CredentialsIssuedTotal   prometheus.Counter
	IssueRejectedTotal       *prometheus.CounterVec // by reason
	VerificationsTotal       *prometheus.CounterVec // by outcome
	TransactionDuration      *prometheus.HistogramVec
	LedgerSize               prometheus.Gauge
	IssueTransactionsPending prometheus.Gauge
}

// New registers the ledger metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsIssuedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "credentia_credentials_issued_total",
			Help: "Total number of credentials committed to the ledger",
		}),

		IssueRejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_issue_rejected_total",
			Help: "Total number of rejected issue transactions by reason",
		}, []string{"reason"}),

		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_verifications_total",
			Help: "Total number of verification queries by outcome",
		}, []string{"outcome"}),

		TransactionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credentia_transaction_duration_seconds",
			Help:    "Duration of ledger transactions including simulated latency",
			Buckets: []float64{0.01, 0.1, 0.5, 0.8, 1, 2, 2.5, 5},
		}, []string{"operation"}),

		LedgerSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credentia_ledger_records",
			Help: "Current number of records on the ledger",
		}),

		IssueTransactionsPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credentia_issue_transactions_pending",
			Help: "Issue transactions currently waiting to be mined (0 or 1)",
		}),
	}
}

// IncrementIssued records a committed credential.
func (m *Metrics) IncrementIssued() {
	m.CredentialsIssuedTotal.Inc()
}

// IncrementRejected records a rejected issue transaction.
func (m *Metrics) IncrementRejected(reason string) {
	m.IssueRejectedTotal.WithLabelValues(reason).Inc()
}

// IncrementVerification records a verification outcome.
func (m *Metrics) IncrementVerification(found bool) {
	outcome := OutcomeNotFound
	if found {
		outcome = OutcomeFound
	}
	m.VerificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTransactionDuration records how long an operation took.
func (m *Metrics) ObserveTransactionDuration(operation string, durationSeconds float64) {
	m.TransactionDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// SetLedgerSize updates the ledger size gauge.
func (m *Metrics) SetLedgerSize(n int) {
	m.LedgerSize.Set(float64(n))
}

// SetIssuePending flips the pending-issue gauge.
func (m *Metrics) SetIssuePending(pending bool) {
	if pending {
		m.IssueTransactionsPending.Set(1)
		return
	}
	m.IssueTransactionsPending.Set(0)
}
