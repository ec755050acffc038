package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/catalog-enricher/internal/types"
)

const (
	defaultHTTPTimeout = 90 * time.Second
	maxErrorBody       = 512
)

// Config captures the agent platform endpoint and the agent identifiers
type Config struct {
	BaseURL           string
	APIKey            string
	EnrichmentAgentID string
	ExportAgentID     string
	TimeoutSeconds    int
}

// HTTPClient calls agents hosted on a remote agent platform. It implements
// both Enricher and ExportNotifier.
type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewHTTPClient constructs a client for cfg
func NewHTTPClient(cfg Config, opts ...Option) *HTTPClient {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &HTTPClient{
		cfg: Config{
			BaseURL:           strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:            strings.TrimSpace(cfg.APIKey),
			EnrichmentAgentID: strings.TrimSpace(cfg.EnrichmentAgentID),
			ExportAgentID:     strings.TrimSpace(cfg.ExportAgentID),
			TimeoutSeconds:    cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callRequest struct {
	Message string `json:"message"`
	AgentID string `json:"agent_id"`
}

type callResponse struct {
	Success  bool `json:"success"`
	Response struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
	} `json:"response"`
	Error string `json:"error"`
}

// Enrich sends req to the enrichment agent
func (c *HTTPClient) Enrich(ctx context.Context, req Request) (*types.EnrichmentResult, error) {
	resp, err := c.call(ctx, c.cfg.EnrichmentAgentID, req)
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(resp.Response.Result)
	if err != nil {
		return nil, &CallError{AgentID: c.cfg.EnrichmentAgentID, Message: "malformed result", Cause: err}
	}
	return result, nil
}

// NotifyExport sends notice to the export agent
func (c *HTTPClient) NotifyExport(ctx context.Context, notice ExportNotice) error {
	_, err := c.call(ctx, c.cfg.ExportAgentID, notice)
	return err
}

// call posts payload as a JSON-encoded message string and returns the
// decoded envelope. Envelopes reporting success=false are errors.
func (c *HTTPClient) call(ctx context.Context, agentID string, payload any) (*callResponse, error) {
	if agentID == "" {
		return nil, &CallError{Message: "agent id not configured"}
	}
	if c.cfg.BaseURL == "" {
		return nil, &CallError{AgentID: agentID, Message: "agent base URL not configured"}
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return nil, &CallError{AgentID: agentID, Message: "encode message", Cause: err}
	}
	body, err := json.Marshal(callRequest{Message: string(message), AgentID: agentID})
	if err != nil {
		return nil, &CallError{AgentID: agentID, Message: "encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{AgentID: agentID, Message: "build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &CallError{AgentID: agentID, Message: "request failed", Cause: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &CallError{AgentID: agentID, StatusCode: httpResp.StatusCode, Message: "read response", Cause: err}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &CallError{
			AgentID:    agentID,
			StatusCode: httpResp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(raw)), maxErrorBody),
		}
	}

	var envelope callResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &CallError{AgentID: agentID, StatusCode: httpResp.StatusCode, Message: "decode envelope", Cause: err}
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "agent reported failure"
		}
		return nil, &CallError{AgentID: agentID, StatusCode: httpResp.StatusCode, Message: msg}
	}
	return &envelope, nil
}

// decodeResult accepts an object, a JSON string holding an object, or an
// absent result (no facets).
func decodeResult(raw json.RawMessage) (*types.EnrichmentResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &types.EnrichmentResult{}, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil, errors.New("empty result string")
		}
		trimmed = []byte(inner)
	}
	return types.DecodeEnrichmentResult(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
