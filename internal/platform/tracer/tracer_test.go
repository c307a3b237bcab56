package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"credentia/internal/platform/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanIssueCredential, tracer.String(tracer.AttrRecordID, "0xabc"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Bool(tracer.AttrFound, true))
	span.AddEvent(tracer.EventTransactionMined, tracer.Int64(tracer.AttrBlockNumber, 10245))
	span.End(errors.New("boom"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanVerifyCredential,
		tracer.String(tracer.AttrRecordID, "0xabc"),
		tracer.Int64(tracer.AttrSimulatedLatency, 800),
		tracer.Bool(tracer.AttrFound, false),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String(tracer.AttrReason, "NotFound"))
	span.AddEvent(tracer.EventCredentialEmitted)
	span.End(errors.New("not found"))
}

func TestOTelTracer_DefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanIssueCredential)
	require.NotNil(t, span)
	span.End(nil)
}

func TestHashStudentID(t *testing.T) {
	assert.Empty(t, tracer.HashStudentID(""))
	assert.Len(t, tracer.HashStudentID("S-1001"), 16)
	assert.Equal(t, tracer.HashStudentID("S-1001"), tracer.HashStudentID("S-1001"))
	assert.NotEqual(t, tracer.HashStudentID("S-1001"), tracer.HashStudentID("S-1002"))
}

func TestDurationAttribute(t *testing.T) {
	attr := tracer.Duration(tracer.AttrSimulatedLatency, 2*time.Second)
	assert.Equal(t, tracer.AttrSimulatedLatency, attr.Key)
	assert.Equal(t, int64(2000), attr.Value)
}
