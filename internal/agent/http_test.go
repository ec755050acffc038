package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/types"
)

type capturedCall struct {
	apiKey  string
	agentID string
	message map[string]any
}

func newAgentServer(t *testing.T, status int, body string, calls *[]capturedCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req callRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		var message map[string]any
		require.NoError(t, json.Unmarshal([]byte(req.Message), &message))
		if calls != nil {
			*calls = append(*calls, capturedCall{apiKey: r.Header.Get("x-api-key"), agentID: req.AgentID, message: message})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) Config {
	return Config{
		BaseURL:           url,
		APIKey:            "secret",
		EnrichmentAgentID: "enrich-agent",
		ExportAgentID:     "export-agent",
	}
}

func TestHTTPClient_Enrich_Success(t *testing.T) {
	var calls []capturedCall
	srv := newAgentServer(t, http.StatusOK, `{
		"success": true,
		"response": {"status": "success", "result": {
			"product_name": "Ergonomic Chair",
			"description_data": {"product_title": "Ergonomic Chair", "selling_points": ["Mesh back"]},
			"seo_data": {"meta_title": "Chair", "seo_score": 82}
		}}
	}`, &calls)

	client := NewHTTPClient(testConfig(srv.URL))
	req := NewRequest(types.NewRawRecord("name", "Chair"), types.DefaultEnrichmentConfig())

	result, err := client.Enrich(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, result.ProductName)
	assert.Equal(t, "Ergonomic Chair", *result.ProductName)
	assert.Nil(t, result.EnrichmentStatus)
	require.NotNil(t, result.DescriptionData)
	assert.Equal(t, []string{"Mesh back"}, result.DescriptionData.SellingPoints)
	require.NotNil(t, result.SEOData.SEOScore)
	assert.InDelta(t, 82.0, *result.SEOData.SEOScore, 0.001)
	assert.Nil(t, result.AttributeData)

	require.Len(t, calls, 1)
	assert.Equal(t, "secret", calls[0].apiKey)
	assert.Equal(t, "enrich-agent", calls[0].agentID)
	assert.Equal(t, "professional and compelling", calls[0].message["brand_tone"])
	assert.Equal(t, map[string]any{"name": "Chair"}, calls[0].message["product_data"])
}

func TestHTTPClient_Enrich_ResultVariants(t *testing.T) {
	tests := []struct {
		name     string
		result   string
		wantName string
		wantErr  bool
	}{
		{name: "missing result", result: `null`},
		{name: "stringified object", result: `"{\"product_name\": \"Tea\"}"`, wantName: "Tea"},
		{name: "scalar result", result: `42`, wantErr: true},
		{name: "empty string", result: `""`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"success": true, "response": {"status": "success", "result": ` + tt.result + `}}`
			srv := newAgentServer(t, http.StatusOK, body, nil)

			result, err := NewHTTPClient(testConfig(srv.URL)).Enrich(context.Background(), Request{})
			if tt.wantErr {
				var callErr *CallError
				require.ErrorAs(t, err, &callErr)
				return
			}
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, result.ProductName)
				return
			}
			require.NotNil(t, result.ProductName)
			assert.Equal(t, tt.wantName, *result.ProductName)
		})
	}
}

func TestHTTPClient_Enrich_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "failure envelope", status: http.StatusOK, body: `{"success": false, "error": "quota exceeded"}`, wantStatus: 200, wantMsg: "quota exceeded"},
		{name: "failure without message", status: http.StatusOK, body: `{"success": false}`, wantStatus: 200, wantMsg: "agent reported failure"},
		{name: "server error", status: http.StatusBadGateway, body: `upstream down`, wantStatus: 502, wantMsg: "upstream down"},
		{name: "undecodable envelope", status: http.StatusOK, body: `<html>`, wantStatus: 200, wantMsg: "decode envelope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAgentServer(t, tt.status, tt.body, nil)

			_, err := NewHTTPClient(testConfig(srv.URL)).Enrich(context.Background(), Request{})
			var callErr *CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, tt.wantStatus, callErr.StatusCode)
			assert.Contains(t, callErr.Error(), tt.wantMsg)
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(testConfig(url)).Enrich(context.Background(), Request{})
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "request failed", callErr.Message)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestHTTPClient_MissingConfiguration(t *testing.T) {
	_, err := NewHTTPClient(Config{BaseURL: "http://localhost"}).Enrich(context.Background(), Request{})
	assert.ErrorContains(t, err, "agent id not configured")

	err = NewHTTPClient(Config{ExportAgentID: "export-agent"}).NotifyExport(context.Background(), ExportNotice{})
	assert.ErrorContains(t, err, "base URL not configured")
}

func TestHTTPClient_NotifyExport(t *testing.T) {
	var calls []capturedCall
	srv := newAgentServer(t, http.StatusOK, `{"success": true, "response": {"status": "success"}}`, &calls)

	notice := ExportNotice{ApprovedProducts: []ExportedProduct{{ProductName: "Chair"}}}
	require.NoError(t, NewHTTPClient(testConfig(srv.URL)).NotifyExport(context.Background(), notice))

	require.Len(t, calls, 1)
	assert.Equal(t, "export-agent", calls[0].agentID)
	products := calls[0].message["approved_products"].([]any)
	assert.Equal(t, "Chair", products[0].(map[string]any)["product_name"])
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.NotifyExport(context.Background(), ExportNotice{}))
}
