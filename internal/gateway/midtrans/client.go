package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tiketons/internal/status"
)

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	ServerKey string `json:"serverKey" mapstructure:"server_key"`
	ClientKey string `json:"clientKey" mapstructure:"client_key"`
}

// Client is a minimal Core API client. Authentication is static basic auth
// with the server key, so unlike bank gateways there is no token to refresh.
type Client struct {
	// baseURL is the Core API host, sandbox or production.
	baseURL string

	// serverKey authenticates outbound calls and signs inbound webhooks.
	serverKey string

	// clientKey is handed to clients for tokenization flows.
	clientKey string

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a new Core API client.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		clientKey: cfg.ClientKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", status.ErrGateway, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", status.ErrGateway, err)
	}

	return nil
}
