package retrieval

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

const askPath = "/integrations/customer-service/ask"

// Client talks to the external customer-service RAG platform.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the given platform base URL. The token is
// sent on every request as the X-Customer-Service-Token header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type askRequest struct {
	Question  string                 `json:"question"`
	SessionID string                 `json:"session_id"`
	TopK      int                    `json:"top_k"`
	AllowWeb  bool                   `json:"allow_web"`
	DocOnly   bool                   `json:"doc_only"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type askCitation struct {
	Text     string                 `json:"text"`
	Snippet  string                 `json:"snippet"`
	Score    float64                `json:"score"`
	DocID    string                 `json:"doc_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

type askResponse struct {
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Citations  []askCitation `json:"citations"`
}

// ExternalAnswer is the normalized reply from the external platform.
type ExternalAnswer struct {
	Answer     string
	Confidence float64
	Hits       []Hit
}

// Ask forwards the question to the platform. Documents-only mode is forced
// so the platform never falls back to web search on the gateway's behalf.
func (c *Client) Ask(ctx context.Context, question, sessionID string, topK int, metadata map[string]interface{}) (*ExternalAnswer, error) {
	body, err := json.Marshal(askRequest{
		Question:  question,
		SessionID: sessionID,
		TopK:      topK,
		AllowWeb:  false,
		DocOnly:   true,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+askPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Customer-Service-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external retrieval request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("external retrieval returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed askResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode ask response: %w", err)
	}

	answer := &ExternalAnswer{
		Answer:     parsed.Answer,
		Confidence: parsed.Confidence,
		Hits:       make([]Hit, 0, len(parsed.Citations)),
	}
	for _, cit := range parsed.Citations {
		text := cit.Text
		if text == "" {
			text = cit.Snippet
		}
		answer.Hits = append(answer.Hits, Hit{
			Text:     text,
			Score:    cit.Score,
			DocID:    cit.DocID,
			Metadata: cit.Metadata,
		})
	}
	return answer, nil
}

// Ping probes the platform health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Customer-Service-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("external retrieval unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
