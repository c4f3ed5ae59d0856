// Package listmonk is a small client for the Listmonk campaign API,
// covering campaign creation and starting.
package listmonk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/makerletter/internal/config"
)

// CampaignRequest is the payload for creating a campaign.
type CampaignRequest struct {
	Name        string   `json:"name"`
	Subject     string   `json:"subject"`
	Lists       []int    `json:"lists"`
	ContentType string   `json:"content_type"`
	Body        string   `json:"body"`
	Messenger   string   `json:"messenger"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags,omitempty"`
	TemplateID  int      `json:"template_id,omitempty"`
	FromEmail   string   `json:"from_email,omitempty"`
}

type campaignResponse struct {
	Data struct {
		ID int `json:"id"`
	} `json:"data"`
}

// Client talks to a Listmonk instance over its REST API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a Listmonk API client from configuration.
func NewClient(cfg config.ListmonkConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    cfg.URL,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "listmonk"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// CreateCampaign creates a draft campaign and returns its ID.
func (c *Client) CreateCampaign(ctx context.Context, req CampaignRequest) (int, error) {
	if req.Subject == "" {
		return 0, fmt.Errorf("campaign subject is empty")
	}
	if len(req.Lists) == 0 {
		return 0, fmt.Errorf("campaign has no target lists")
	}
	for _, id := range req.Lists {
		if id <= 0 {
			return 0, fmt.Errorf("invalid list ID: %d", id)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode campaign request: %w", err)
	}

	respBody, err := c.doWithRetries(ctx, http.MethodPost, "/api/campaigns", body)
	if err != nil {
		return 0, err
	}

	var parsed campaignResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode campaign response: %w", err)
	}
	if parsed.Data.ID == 0 {
		return 0, fmt.Errorf("campaign response did not contain an ID")
	}

	c.log.Info("Created campaign", "campaign_id", parsed.Data.ID, "subject", req.Subject)
	return parsed.Data.ID, nil
}

// StartCampaign moves a campaign to the running state, which sends it.
func (c *Client) StartCampaign(ctx context.Context, campaignID int) error {
	if campaignID <= 0 {
		return fmt.Errorf("invalid campaign ID: %d", campaignID)
	}

	body := []byte(`{"status":"running"}`)
	path := fmt.Sprintf("/api/campaigns/%d/status", campaignID)
	if _, err := c.doWithRetries(ctx, http.MethodPut, path, body); err != nil {
		return err
	}

	c.log.Info("Started campaign", "campaign_id", campaignID)
	return nil
}

// doWithRetries performs one API call, retrying only on transport errors.
// A response with a non-2xx status is treated as final.
func (c *Client) doWithRetries(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("Retrying Listmonk request",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"path", path,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		respBody, retryable, err := c.do(ctx, method, path, body)
		if err == nil {
			return respBody, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("listmonk unreachable after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("listmonk returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, false, nil
}
