package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTokenMissing is a configuration failure: the shared bearer
	// credential is absent, so no upstream call can be attempted. Store-only
	// operations are unaffected.
	ErrTokenMissing = errors.New("upstream token is not configured")

	// ErrUpstreamUnreachable is a transport-level failure (dial, TLS,
	// timeout), distinct from the upstream answering with an error status.
	ErrUpstreamUnreachable = errors.New("upstream request failed")
)

// UpstreamError carries a non-2xx upstream response verbatim: original status
// code plus decoded body, forwarded to the caller rather than swallowed.
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, string(e.Body))
}

// UpstreamClient covers the three task-distribution operations. Payloads are
// opaque JSON; their shape is the upstream's business.
type UpstreamClient interface {
	Apply(ctx context.Context, jobID string) (json.RawMessage, error)
	Submit(ctx context.Context, jobID string, jobProof string) (json.RawMessage, error)
	Details(ctx context.Context, taskID string) (json.RawMessage, error)
}
