package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"
)

const defaultPageSize = 25

// providerRequest is the flat filter object the inventory provider accepts.
type providerRequest struct {
	Size      int    `json:"size"`
	Active    bool   `json:"active"`
	HasPhotos bool   `json:"hasPhotos"`
	ZipCode   string `json:"zipCode,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
}

// Client talks to the property inventory provider. The response shape is
// provider-defined and not guaranteed stable, so the body is decoded into a
// generic tree and handed to the normalizer.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates an inventory provider client from config.
func NewClient(cfg config.InventoryConfig, log *logger.Logger) *Client {
	timeout := cfg.GetInventoryTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.GetInventoryBaseURL(),
		apiKey:  cfg.GetInventoryAPIKey(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Enabled reports whether a provider endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// FetchListings queries the provider scoped by location only. Bedroom, price,
// and type constraints are applied locally so the relaxation ladder has the
// full candidate set to work with.
func (c *Client) FetchListings(ctx context.Context, filters SearchFilters) (any, error) {
	location := NormalizeLocation(filters.Location)
	reqBody := providerRequest{
		Size:      defaultPageSize,
		Active:    true,
		HasPhotos: true,
		ZipCode:   location.ZipCode,
		City:      location.City,
		State:     location.State,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/PropertySearch", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("inventory provider error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("inventory provider status %d", resp.StatusCode)
	}

	var tree any
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode inventory response: %w", err)
	}
	return tree, nil
}
