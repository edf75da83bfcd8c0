package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/errs"
)

// Apply forwards a task application for a job and passes the upstream payload
// through untouched.
func (s *Service) Apply(ctx context.Context, jobID string) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.client == nil {
		return nil, errors.New("upstream client is required")
	}

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, domaintasks.ErrJobIDRequired
	}

	return s.client.Apply(ctx, jobID)
}
