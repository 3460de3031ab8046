package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

// Client talks to the external text-embedding service. The endpoint URL
// and model tag are constructor parameters so callers stay testable
// without touching the process environment.
type Client struct {
	apiURL     string
	model      string
	httpClient *http.Client
}

// NewClient constructs an embedding Client.
func NewClient(apiURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the model tag persisted alongside generated embeddings.
func (c *Client) Model() string {
	return c.model
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding json.RawMessage `json:"embedding"`
	Model     string          `json:"model"`
}

// Generate embeds the given text. Empty or whitespace-only input returns
// an empty vector without issuing a network call. A non-success status
// maps to ErrRemoteService; a response without a numeric `embedding`
// array maps to ErrMalformedResponse. No retries at this layer.
func (c *Client) Generate(ctx context.Context, text string) ([]float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return []float64{}, nil
	}

	payload, err := json.Marshal(embedRequest{Text: cleaned})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build embedding request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteService.Code, appErrors.ErrRemoteService.Status, "embedding request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteService.Code, appErrors.ErrRemoteService.Status, "failed to read embedding response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, appErrors.Clone(appErrors.ErrRemoteService, fmt.Sprintf("embedding request failed with status %d", resp.StatusCode))
	}

	var decoded embedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedResponse.Code, appErrors.ErrMalformedResponse.Status, "failed to decode embedding response")
	}
	if len(decoded.Embedding) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedResponse, "embedding response missing embedding field")
	}

	var vector []float64
	if err := json.Unmarshal(decoded.Embedding, &vector); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedResponse.Code, appErrors.ErrMalformedResponse.Status, "embedding field is not a numeric array")
	}

	return vector, nil
}
