package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/knob/internal/adapters/telemetry"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/knob/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newRecordingTracer(t *testing.T) (*telemetry.OTelTracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	return telemetry.NewOTelTracerFromProvider(provider, "knob-test"), recorder
}

func TestOTelTracer_StartAndAttributes(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "settings.store", ports.WithAttribute("phase", "delete"))
	span.SetAttribute("count", 3)
	span.SetAttribute("keys", []string{"a", "b"})
	span.SetAttribute("ok", true)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "settings.store", ended[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "delete", attrs["phase"].AsString())
	assert.Equal(t, int64(3), attrs["count"].AsInt64())
	assert.Equal(t, []string{"a", "b"}, attrs["keys"].AsStringSlice())
	assert.True(t, attrs["ok"].AsBool())
}

func TestOTelTracer_RecordError(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "migration.up")
	span.RecordError(errors.New("boom"))
	span.RecordError(nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "migration.run")
	tracer.EmitPlan(ctx, []string{"m1", "m2"})
	span.End()

	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
	assert.Equal(t, []string{"m1", "m2"}, events[0].Attributes[0].Value.AsStringSlice())
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	gotCtx, span := tracer.Start(ctx, "anything")
	assert.Equal(t, ctx, gotCtx)

	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
	tracer.EmitPlan(ctx, []string{"x"})
}

func TestProvider_LogsFinishedSpansWhenEnabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	recorder := tracetest.NewSpanRecorder()
	provider := telemetry.NewProvider(log, sdktrace.WithSpanProcessor(recorder))
	ctx := context.Background()

	_, quiet := provider.Start(ctx, "settings.store")
	quiet.End()

	provider.SetSpanLogging(true)
	log.EXPECT().Info(gomock.Cond(func(msg string) bool {
		return strings.HasPrefix(msg, "span settings.store finished in ")
	}))
	log.EXPECT().Warn(gomock.Cond(func(msg string) bool {
		return strings.HasPrefix(msg, "span migration.step failed after ") && strings.HasSuffix(msg, ": boom")
	}))

	_, ok := provider.Start(ctx, "settings.store")
	ok.End()
	_, failed := provider.Start(ctx, "migration.step")
	failed.RecordError(errors.New("boom"))
	failed.End()

	require.NoError(t, provider.ForceFlush(ctx))
	assert.Len(t, recorder.Ended(), 3)
	require.NoError(t, provider.Shutdown(ctx))
}
