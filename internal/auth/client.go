package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable is returned when the exchange request never got a response.
var ErrUnreachable = errors.New("verification backend unreachable")

// RejectedError is returned when the backend answered but refused the payload.
// Message is the backend's own explanation and may be empty.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authorization rejected (status %d)", e.Status)
	}
	return fmt.Sprintf("authorization rejected (status %d): %s", e.Status, e.Message)
}

// ExchangeResponse is the backend's answer to a successful exchange.
type ExchangeResponse struct {
	Success      bool     `json:"success"`
	User         *Profile `json:"user,omitempty"`
	SessionToken string   `json:"session_token,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 1 << 20

// ExchangeClient posts widget payloads to the verification backend
type ExchangeClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewExchangeClient creates a client for the given backend endpoint.
// A zero timeout leaves the transport's own behaviour in place.
func NewExchangeClient(endpoint string, timeout time.Duration) *ExchangeClient {
	return &ExchangeClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewExchangeClientWithHTTP is NewExchangeClient with a caller-supplied http.Client.
func NewExchangeClientWithHTTP(endpoint string, httpClient *http.Client) *ExchangeClient {
	return &ExchangeClient{endpoint: endpoint, httpClient: httpClient}
}

// Exchange sends the payload once and interprets the response. There is no retry.
func (c *ExchangeClient) Exchange(ctx context.Context, payload IdentityPayload) (*ExchangeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	// a response did arrive, so a truncated body is a refusal, not an outage
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RejectedError{Status: resp.StatusCode}
	}

	var out ExchangeResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Non-2xx bodies are unspecified; use the message only if one decodes.
		return nil, &RejectedError{Status: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		return nil, &RejectedError{Status: resp.StatusCode}
	}
	if !out.Success || out.User == nil || out.SessionToken == "" {
		return nil, &RejectedError{Status: resp.StatusCode, Message: out.Error}
	}

	return &out, nil
}
