// Package gateway talks to the WhatsApp Cloud API: sending replies,
// downloading inbound media and normalizing webhook payloads into messages
// the engine can route.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v21.0"

// Sender delivers outbound text messages.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// MediaDownloader fetches inbound media content by its Graph API id.
type MediaDownloader interface {
	// Download returns the media bytes and their MIME type.
	Download(ctx context.Context, mediaID string) ([]byte, string, error)
}

// Client is the Graph API implementation of Sender and MediaDownloader.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	phoneID    string
	log        *slog.Logger
}

var (
	_ Sender          = (*Client)(nil)
	_ MediaDownloader = (*Client)(nil)
)

// NewClient builds a Graph API client for one business phone number.
func NewClient(baseURL, token, phoneID string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		phoneID:    phoneID,
		log:        log,
	}
}

// SendText sends a plain text message to a phone number.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	body, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Download resolves a media id to its content. The Graph API makes this a
// two-step dance: first fetch the signed URL, then fetch the bytes from it
// with the same bearer token.
func (c *Client) Download(ctx context.Context, mediaID string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+mediaID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media lookup returned status %d", resp.StatusCode)
	}

	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, "", fmt.Errorf("failed to decode media lookup: %w", err)
	}
	if meta.URL == "" {
		return nil, "", fmt.Errorf("media lookup returned no url")
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media download: %w", err)
	}
	dlReq.Header.Set("Authorization", "Bearer "+c.token)

	dlResp, err := c.httpClient.Do(dlReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download returned status %d", dlResp.StatusCode)
	}

	data, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	return data, meta.MimeType, nil
}
