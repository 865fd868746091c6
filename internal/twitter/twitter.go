// Package twitter posts text updates to X through the v2 API with
// OAuth 1.0a user-context credentials.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	defaultAPIURL = "https://api.twitter.com/2/tweets"

	// Platform hard limit per post.
	maxPostRunes = 280
)

// Credentials are the four OAuth 1.0a values the posting API requires.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

type ClientConfig struct {
	Credentials Credentials
	Timeout     time.Duration
	APIURL      string
	HTTPClient  *http.Client // overrides the signed client, for tests
}

type Client struct {
	httpClient *http.Client
	apiURL     string
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		oauthCfg := oauth1.NewConfig(cfg.Credentials.APIKey, cfg.Credentials.APISecret)
		token := oauth1.NewToken(cfg.Credentials.AccessToken, cfg.Credentials.AccessSecret)
		httpClient = oauthCfg.Client(oauth1.NoContext, token)
		if cfg.Timeout > 0 {
			httpClient.Timeout = cfg.Timeout
		}
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{httpClient: httpClient, apiURL: apiURL}
}

// Truncate caps text at the platform limit, cutting oversized input to
// 279 runes plus an ellipsis.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxPostRunes {
		return text
	}
	return string(runes[:maxPostRunes-1]) + "…"
}

type createResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Post sends one post, truncating oversized text, and returns the id of
// the created post. One attempt only.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": Truncate(text)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("post API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode post response: %w", err)
	}
	return out.Data.ID, nil
}
