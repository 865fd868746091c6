// Package sofascore is a minimal read-only client for the SofaScore
// public API, covering the four endpoints the bot polls.
package sofascore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.sofascore.com/api/v1"

type ClientConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	teamID     int64
}

func NewClient(cfg ClientConfig, teamID int64) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		teamID:     teamID,
	}
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

type eventResponse struct {
	Event Event `json:"event"`
}

// NextEvents returns the team's upcoming fixtures (page 0, which may
// include a match in progress today).
func (c *Client) NextEvents(ctx context.Context) ([]Event, error) {
	var resp eventsResponse
	path := fmt.Sprintf("/team/%d/events/next/0", c.teamID)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// LastEvents returns recent past fixtures; a live match sometimes only
// shows up here once kickoff has passed.
func (c *Client) LastEvents(ctx context.Context) ([]Event, error) {
	var resp eventsResponse
	path := fmt.Sprintf("/team/%d/events/last/0", c.teamID)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// EventDetails returns the full event object with live score and
// status.
func (c *Client) EventDetails(ctx context.Context, eventID int64) (*Event, error) {
	var resp eventResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/event/%d", eventID), &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

// EventIncidents returns the incident lists (goals, cards, subs) for a
// live or finished event.
func (c *Client) EventIncidents(ctx context.Context, eventID int64) (*Incidents, error) {
	var resp Incidents
	if err := c.getJSON(ctx, fmt.Sprintf("/event/%d/incidents", eventID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
