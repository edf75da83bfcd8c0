package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"taskproxy/internal/bootstrap/config"
	"taskproxy/internal/errs"
	"taskproxy/internal/ports"
)

const (
	applyPath   = "/api/v2/tasks/apply"
	submitPath  = "/api/v2/tasks/submit"
	detailsPath = "/api/v2/tasks/details"
)

// noContentSentinel replaces an empty 204 success so callers never see an
// empty payload on the success path.
var noContentSentinel = json.RawMessage(`{"ok":true,"status_code":204}`)

// Client calls the task-distribution API with the shared bearer credential.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

var _ ports.UpstreamClient = (*Client)(nil)

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		httpc:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *Client) Apply(ctx context.Context, jobID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("job_id", jobID)
	return c.do(ctx, http.MethodGet, applyPath, params, nil)
}

func (c *Client) Submit(ctx context.Context, jobID string, jobProof string) (json.RawMessage, error) {
	body := map[string]string{
		"job_id":    jobID,
		"job_proof": jobProof,
	}
	return c.do(ctx, http.MethodPost, submitPath, nil, body)
}

func (c *Client) Details(ctx context.Context, taskID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("task_id", taskID)
	// The upstream expects POST with the task id in the query and an empty
	// JSON object body.
	return c.do(ctx, http.MethodPost, detailsPath, params, map[string]string{})
}

func (c *Client) do(ctx context.Context, method string, path string, params url.Values, body any) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if c.token == "" {
		return nil, ports.ErrTokenMissing
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errs.Wrap(err, "build upstream request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrUpstreamUnreachable, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusNoContent {
		return noContentSentinel, nil
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ports.ErrUpstreamUnreachable, err)
	}

	payload := normalizeBody(raw)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &ports.UpstreamError{
			StatusCode: res.StatusCode,
			Body:       payload,
		}
	}
	return payload, nil
}

// normalizeBody keeps valid JSON as-is and wraps anything else under "_raw"
// so callers always receive JSON.
func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage(`{"_raw":""}`)
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}

	wrapped, err := json.Marshal(map[string]string{"_raw": string(raw)})
	if err != nil {
		return json.RawMessage(`{"_raw":""}`)
	}
	return json.RawMessage(wrapped)
}
