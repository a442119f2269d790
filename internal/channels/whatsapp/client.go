package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// Client sends messages through one tenant's Evolution API instance.
type Client struct {
	serverURL    string
	apiKey       string
	instanceName string
	httpClient   *http.Client
}

// NewClient creates a client for the given Evolution server and instance.
func NewClient(serverURL, apiKey, instanceName string) *Client {
	return &Client{
		serverURL:    strings.TrimRight(serverURL, "/"),
		apiKey:       apiKey,
		instanceName: instanceName,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SendText sends a plain text message to the given number (digits only or
// full jid; the server accepts both).
func (c *Client) SendText(ctx context.Context, number, text string) (*SendResponse, error) {
	payload, err := json.Marshal(SendTextRequest{Number: number, Text: text})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.serverURL, c.instanceName)

	// Evolution deployments differ on the auth header; try the apikey
	// header first and fall back to a Bearer token on 401.
	resp, err := c.post(ctx, url, payload, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		resp, err = c.post(ctx, url, payload, true)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whatsapp: send failed with status %d: %s", resp.StatusCode, string(body))
	}

	var sendResp SendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	return &sendResp, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte, bearer bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	return resp, nil
}

// SetHTTPClient overrides the HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetServerURL overrides the server base URL (useful for testing).
func (c *Client) SetServerURL(base string) {
	c.serverURL = strings.TrimRight(base, "/")
}
