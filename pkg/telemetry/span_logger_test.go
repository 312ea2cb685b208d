package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type captureWriter struct {
	entries []string
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.entries = append(c.entries, string(p))
	return len(p), nil
}

func TestSpanLoggerEmitsCompletedSpans(t *testing.T) {
	writer := &captureWriter{}
	logger := zerolog.New(writer)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(newSpanLogger(logger))),
	)

	ctx := context.Background()
	tracer := provider.Tracer("test")
	_, span := tracer.Start(ctx, "register-visit")
	span.SetAttributes(attribute.String("visit.tag", "demo"))
	span.End()

	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if len(writer.entries) == 0 {
		t.Fatal("expected a log entry for the completed span")
	}
	if !strings.Contains(writer.entries[0], "register-visit") {
		t.Errorf("log entry missing span name: %s", writer.entries[0])
	}
}
