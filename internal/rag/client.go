package rag

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	relay_errors "chat-relay/pkg/errors"
)

// QueryPath is appended to the configured base URL.
const QueryPath = "/query"

const maxResponseBytes = 4 << 20

type Config struct {
	BaseURL string
	// AllowInsecure disables certificate verification for https base URLs.
	// Meant for internal deployments running on self-signed certificates.
	AllowInsecure bool
	// Timeout bounds a single query. Zero means no timeout.
	Timeout time.Duration
}

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResponse struct {
	Response *struct {
		HumanResponse *struct {
			Text *string `json:"text"`
		} `json:"human_response"`
	} `json:"response"`
}

// Text returns response.human_response.text, or false when any level is absent.
func (r QueryResponse) Text() (string, bool) {
	if r.Response == nil || r.Response.HumanResponse == nil || r.Response.HumanResponse.Text == nil {
		return "", false
	}
	return *r.Response.HumanResponse.Text, true
}

// Client talks to the RAG service.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(cfg Config) *Client {
	endpoint := Endpoint(cfg.BaseURL)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.AllowInsecure && IsSecure(endpoint) {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via ALLOW_INSECURE_UPSTREAM
	}

	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Endpoint builds the query URL from a base URL.
func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + QueryPath
}

func IsSecure(endpoint string) bool {
	return strings.HasPrefix(strings.ToLower(endpoint), "https://")
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query posts text to the RAG service and returns the human readable answer.
// Transport failures come back as *NetworkError wrapping ErrUpstreamUnavailable.
func (c *Client) Query(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(QueryRequest{Query: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build rag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", NewNetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", relay_errors.ErrUpstreamStatus, resp.StatusCode)
	}

	var parsed QueryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", relay_errors.ErrMalformedResponse, err)
	}

	answer, ok := parsed.Text()
	if !ok {
		return "", fmt.Errorf("%w: missing response.human_response.text", relay_errors.ErrMalformedResponse)
	}
	return answer, nil
}
