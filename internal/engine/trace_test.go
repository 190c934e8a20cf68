package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"lobook.com/internal/matching"
)

func TestActor_DoRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	a, _ := startActor(t, ActorConfig{})
	ctx := context.Background()

	_, err := a.Do(ctx, Command{Type: CmdAddLimit, ReqID: "ok-1", Order: newOrder(t, "2", matching.Bid), Price: d("10")})
	require.NoError(t, err)
	_, err = a.Do(ctx, Command{Type: CmdAddLimit, ReqID: "bad-1", Order: newOrder(t, "2", matching.Bid), Price: d("-1")})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "book.add_limit", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("req_id", "ok-1"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("seq", 1))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("req_id", "bad-1"))
}
