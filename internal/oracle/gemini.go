package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Gemini REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements Extractor against the Gemini generateContent API.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	log        *slog.Logger
}

var _ Extractor = (*Gemini)(nil)

// NewGemini builds a Gemini-backed extractor. timeout bounds every call,
// on top of whatever deadline the caller's context carries.
func NewGemini(baseURL, apiKey, model string, timeout time.Duration, log *slog.Logger) *Gemini {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gemini{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		log:        log,
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate performs one generateContent round trip and returns the first
// candidate's text.
func (g *Gemini) generate(ctx context.Context, parts []geminiPart) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var req geminiRequest
	req.Contents = append(req.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal model request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build model request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// ExtractGroupMessage implements Extractor.
func (g *Gemini) ExtractGroupMessage(ctx context.Context, text string, roster []string) (*Result, error) {
	raw, err := g.generate(ctx, []geminiPart{{Text: groupPrompt(text, roster)}})
	if err != nil {
		return nil, err
	}
	return ParseResult(raw), nil
}

// ExtractPersonalMessage implements Extractor.
func (g *Gemini) ExtractPersonalMessage(ctx context.Context, text string, categories []string) (*Result, error) {
	raw, err := g.generate(ctx, []geminiPart{{Text: personalPrompt(text, categories)}})
	if err != nil {
		return nil, err
	}
	return ParseResult(raw), nil
}

// ExtractReceipt implements Extractor.
func (g *Gemini) ExtractReceipt(ctx context.Context, media []byte, mimeType string) (*Receipt, error) {
	raw, err := g.generate(ctx, []geminiPart{
		{Text: receiptPrompt},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(media)}},
	})
	if err != nil {
		return nil, err
	}
	receipt := ParseReceipt(raw)
	if receipt == nil {
		return nil, fmt.Errorf("model returned an unreadable receipt answer")
	}
	return receipt, nil
}

// Transcribe implements Extractor.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return g.generate(ctx, []geminiPart{
		{Text: transcribePrompt},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
	})
}

// Analyze implements Extractor.
func (g *Gemini) Analyze(ctx context.Context, summary string) (string, error) {
	return g.generate(ctx, []geminiPart{{Text: analyzePrompt(summary)}})
}
