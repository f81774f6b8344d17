package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestSampler(t *testing.T) {
	sample := sampler(0.25)

	health := sentry.SamplingContext{Span: &sentry.Span{Name: "GET /health"}}
	assert.Equal(t, 0.0, sample(health))

	page := sentry.SamplingContext{Span: &sentry.Span{Name: "GET /"}}
	assert.Equal(t, 0.0, sample(page))

	ask := sentry.SamplingContext{Span: &sentry.Span{Name: "POST /ask"}}
	assert.Equal(t, 0.25, sample(ask))

	child := sentry.SamplingContext{Span: &sentry.Span{
		Name:         "engine.build",
		ParentSpanID: sentry.SpanID{1},
		Sampled:      sentry.SampledTrue,
	}}
	assert.Equal(t, 1.0, sample(child))

	child.Span.Sampled = sentry.SampledFalse
	assert.Equal(t, 0.0, sample(child))
}

func TestHelpersWithoutClient(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		spanCtx, span := StartSpan(ctx, "query.ask", SpanAttributes{Persona: "leadership", Operation: "ask"})
		_, child := StartSpan(spanCtx, "index.search", SpanAttributes{Backend: "memory"})
		child.SetError(errors.New("boom"))
		child.End()
		span.SetStatus(sentry.SpanStatusOK)
		span.End()

		_, tx := StartTransaction(ctx, "oracled index", "cli.index")
		tx.End()

		CaptureError(ctx, errors.New("boom"))
		CaptureError(ctx, nil)
		CaptureMessage(ctx, "history store unreachable")
		AddBreadcrumb(ctx, "history", "skipped write")
	})
}

func TestSpan_NilInner(t *testing.T) {
	span := &Span{}

	assert.NotPanics(t, func() {
		span.SetError(errors.New("boom"))
		span.SetStatus(sentry.SpanStatusOK)
		span.End()
	})
	assert.NotNil(t, span.Context())
}
