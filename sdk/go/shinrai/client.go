package shinrai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Shinrai server (e.g. "http://localhost:8080").
	BaseURL string

	// AgentID identifies this agent for authentication.
	AgentID string

	// APIKey is the secret used to obtain a JWT token.
	APIKey string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 30-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the Shinrai confidence and audit API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL  string
	agentID  string
	client   *http.Client
	tokenMgr *tokenManager
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL, AgentID, or APIKey is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("shinrai: BaseURL is required")
	}
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("shinrai: AgentID is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("shinrai: APIKey is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		agentID:  cfg.AgentID,
		client:   httpClient,
		tokenMgr: newTokenManager(baseURL, cfg.AgentID, cfg.APIKey, httpClient),
	}, nil
}

// UpsertCase creates or replaces a case. Requires admin role.
func (c *Client) UpsertCase(ctx context.Context, caseID uuid.UUID, req UpsertCaseRequest) (*Case, error) {
	var resp Case
	if err := c.put(ctx, "/v1/cases/"+caseID.String(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AppendSignals appends signals to a case. Requires admin role.
func (c *Client) AppendSignals(ctx context.Context, caseID uuid.UUID, signals []SignalInput) ([]Signal, error) {
	body := map[string]any{"signals": signals}
	var resp []Signal
	if err := c.post(ctx, "/v1/cases/"+caseID.String()+"/signals", body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetIntelligence returns the latest persisted computation for a case.
// The first request for a case computes and persists one.
func (c *Client) GetIntelligence(ctx context.Context, caseID uuid.UUID) (*Intelligence, error) {
	var resp Intelligence
	if err := c.get(ctx, "/v1/cases/"+caseID.String()+"/intelligence", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recompute forces a fresh computation and ledger append. Requires operator
// role and is subject to a per-case cooldown; use IsRateLimited to detect
// cooldown rejections.
func (c *Client) Recompute(ctx context.Context, caseID uuid.UUID, reason string) (*Intelligence, error) {
	var body any
	if reason != "" {
		body = map[string]any{"reason": reason}
	}
	var resp Intelligence
	if err := c.post(ctx, "/v1/cases/"+caseID.String()+"/intelligence/recompute", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportAudit retrieves the complete audit trail for a case with chain
// verification. When includePayload is false, entries come back as
// lightweight summaries.
func (c *Client) ExportAudit(ctx context.Context, caseID uuid.UUID, includePayload bool) (*AuditExport, error) {
	path := "/v1/cases/" + caseID.String() + "/audit/export"
	if !includePayload {
		path += "?include_payload=false"
	}
	var resp AuditExport
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server's health status. This endpoint does not require
// authentication and will work even if the client has invalid credentials.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getNoAuth(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	return c.send(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) put(ctx context.Context, path string, body any, dest any) error {
	return c.send(ctx, http.MethodPut, path, body, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("shinrai: marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("shinrai: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.doRequest(ctx, req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("shinrai: create request: %w", err)
	}

	return c.doRequest(ctx, req, dest)
}

func (c *Client) getNoAuth(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("shinrai: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("shinrai: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func (c *Client) doRequest(ctx context.Context, req *http.Request, dest any) error {
	token, err := c.tokenMgr.getToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("shinrai: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shinrai: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	// Unwrap the server's { "data": ... } envelope.
	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("shinrai: decode response envelope: %w", err)
	}

	if envelope.Data == nil {
		// Fallback: some endpoints may not wrap in "data".
		return json.Unmarshal(bodyBytes, dest)
	}

	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
