// Package annotatehttp implements the annotate.Annotator interface against
// an annotator service speaking JSON over HTTP.
package annotatehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trellis-kg/trellis/pkg/common"
)

const defaultTimeout = 60 * time.Second

// Client calls a remote annotator service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClientParams configures a Client.
type NewClientParams struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration
}

// NewClient creates an annotator client for the given base URL. The service
// is expected to expose POST {base}/annotate.
func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: params.BaseURL,
		apiKey:  params.ApiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type annotateRequest struct {
	Text string `json:"text"`
}

// Annotate sends text to the annotator service and decodes the annotated
// document. Transport failures are reported as ErrUpstreamUnavailable; the
// caller decides whether to retry.
func (c *Client) Annotate(ctx context.Context, text string) (*common.AnnotatedDocument, error) {
	body, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/annotate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: annotator request failed: %v", common.ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: annotator returned status %d", common.ErrUpstreamUnavailable, res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("annotator returned status %d: %s", res.StatusCode, msg)
	}

	doc := new(common.AnnotatedDocument)
	if err := json.NewDecoder(res.Body).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode annotator response: %w", err)
	}

	return doc, nil
}
