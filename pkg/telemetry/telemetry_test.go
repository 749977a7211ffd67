package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitializeExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tel, err := InitializeWithWriter("skyvllm-test", &buf)
	if err != nil {
		t.Fatalf("InitializeWithWriter: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "deploy")
	span.End()

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"Name": "deploy"`) {
		t.Errorf("span not exported:\n%s", out)
	}
	if !strings.Contains(out, "skyvllm-test") {
		t.Errorf("service name missing from export:\n%s", out)
	}
}
