package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementIssued()
	m.IncrementIssued()
	m.IncrementRejected("DuplicateStudentId")
	m.IncrementVerification(true)
	m.IncrementVerification(false)
	m.IncrementVerification(false)
	m.SetLedgerSize(2)
	m.SetIssuePending(true)
	m.ObserveTransactionDuration(OperationIssue, 2.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CredentialsIssuedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssueRejectedTotal.WithLabelValues("DuplicateStudentId")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssueTransactionsPending))

	m.SetIssuePending(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IssueTransactionsPending))

	count, err := testutil.GatherAndCount(reg, "credentia_transaction_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
