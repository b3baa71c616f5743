package otel

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{ServiceVersion: "test", UseStdout: true, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	_, span := otel.Tracer("test").Start(ctx, "Orchestrator.CognitiveCycle")
	span.End()
	if err := shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Orchestrator.CognitiveCycle", "wellagent"} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q: %s", want, out)
		}
	}
}

func TestInit_NoExporter(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{})
	if err != nil {
		t.Fatal(err)
	}
	_, span := otel.Tracer("test").Start(ctx, "noop")
	if !span.SpanContext().IsValid() {
		t.Fatal("span context should be valid with the SDK provider installed")
	}
	span.End()
	if err := shutdown(ctx); err != nil {
		t.Fatal(err)
	}
}
