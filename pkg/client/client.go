// Package client provides a Go SDK for the Overseer HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/overseerhq/overseer/pkg/models"
)

// Client calls the Overseer HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:7466"
	APIKey     string       // optional; set for X-API-Key / api_key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:7466").
// APIKey is optional; when set, requests use the X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*models.Config, error) {
	var out models.Config
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// BotMetrics returns the per-bot report.
func (c *Client) BotMetrics(ctx context.Context, botRole string) (*models.BotReport, error) {
	var out models.BotReport
	err := c.doJSON(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(botRole)+"/metrics", nil, &out)
	return &out, err
}

// BotInsights returns a bot's cross-subordinate insights.
func (c *Client) BotInsights(ctx context.Context, botRole string) ([]models.Insight, error) {
	var out []models.Insight
	err := c.doJSON(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(botRole)+"/insights", nil, &out)
	return out, err
}

// LearningRecords returns a bot's learning history.
func (c *Client) LearningRecords(ctx context.Context, botRole string) ([]models.LearningRecord, error) {
	var out []models.LearningRecord
	err := c.doJSON(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(botRole)+"/learning", nil, &out)
	return out, err
}

// Reviews returns a team lead's review audit log.
func (c *Client) Reviews(ctx context.Context, leadRole string) ([]models.ReviewRecord, error) {
	var out []models.ReviewRecord
	err := c.doJSON(ctx, http.MethodGet, "/api/leads/"+url.PathEscape(leadRole)+"/reviews", nil, &out)
	return out, err
}

// Amendments returns a subordinate's amendments.
func (c *Client) Amendments(ctx context.Context, subordinateRole string) ([]models.Amendment, error) {
	var out []models.Amendment
	err := c.doJSON(ctx, http.MethodGet, "/api/subordinates/"+url.PathEscape(subordinateRole)+"/amendments", nil, &out)
	return out, err
}

// Escalations returns escalations, optionally filtered by status.
func (c *Client) Escalations(ctx context.Context, status string) ([]models.Escalation, error) {
	path := "/api/escalations"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []models.Escalation
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// RecordOutcome posts an amendment outcome for learning.
func (c *Client) RecordOutcome(ctx context.Context, req models.OutcomeRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/outcomes", req, nil)
}

// SubmitRecommendation submits a knowledge-bot candidate through intake.
// Validation failures come back as an error carrying the violations.
func (c *Client) SubmitRecommendation(ctx context.Context, rec models.Recommendation) (*models.Recommendation, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/recommendations", rec)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnprocessableEntity {
		var rejection struct {
			Violations []string `json:"violations"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&rejection)
		return nil, fmt.Errorf("recommendation rejected: %v", rejection.Violations)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api POST /api/recommendations: status %d", resp.StatusCode)
	}
	var out models.Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
