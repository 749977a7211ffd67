// Package inference forwards a prompt to the serving process running on a
// named cluster.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terabiome/skyvllm/internal/registry"
	"github.com/terabiome/skyvllm/pkg/constants"
)

const (
	DefaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Request and Response are the serving-process wire contract. The field
// names are fixed by the serving API.
type Request struct {
	Inputs string `json:"inputs"`
}

type Response struct {
	Outputs *string `json:"outputs"`
}

// InferenceError reports a failed or malformed exchange with the serving
// process. StatusCode is zero when no HTTP response was received.
type InferenceError struct {
	Cluster    string
	StatusCode int
	Reason     string
}

func (e *InferenceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference on cluster %q failed (status %d): %s", e.Cluster, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("inference on cluster %q failed: %s", e.Cluster, e.Reason)
}

type Forwarder struct {
	Registry registry.Client
	HTTP     *http.Client
	Port     int

	logger *slog.Logger
}

func NewForwarder(reg registry.Client, timeout time.Duration, logger *slog.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Forwarder{
		Registry: reg,
		HTTP: &http.Client{
			Timeout: timeout,
		},
		Port:   constants.ServingPort,
		logger: logger.With(slog.String("component", "inference")),
	}
}

// Infer resolves clusterName and sends prompt in a single request. Resolution
// errors are returned as-is.
func (f *Forwarder) Infer(ctx context.Context, clusterName, prompt string) (string, error) {
	addr, err := f.Registry.ResolveAddress(ctx, clusterName)
	if err != nil {
		return "", err
	}

	endpoint := "http://" + net.JoinHostPort(string(addr), strconv.Itoa(f.Port))
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Request{Inputs: prompt}); err != nil {
		return "", &InferenceError{Cluster: clusterName, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", &InferenceError{Cluster: clusterName, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	f.logger.Debug("forwarding prompt",
		slog.String("cluster", clusterName),
		slog.String("endpoint", endpoint),
		slog.Int("prompt_bytes", len(prompt)),
	)

	res, err := f.HTTP.Do(req)
	if err != nil {
		return "", &InferenceError{Cluster: clusterName, Reason: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		reason := strings.TrimSpace(string(raw))
		if reason == "" {
			reason = http.StatusText(res.StatusCode)
		}
		return "", &InferenceError{Cluster: clusterName, StatusCode: res.StatusCode, Reason: reason}
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &InferenceError{Cluster: clusterName, StatusCode: res.StatusCode, Reason: fmt.Sprintf("malformed response: %v", err)}
	}
	if out.Outputs == nil {
		return "", &InferenceError{Cluster: clusterName, StatusCode: res.StatusCode, Reason: `response has no "outputs" field`}
	}

	return *out.Outputs, nil
}
