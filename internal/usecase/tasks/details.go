package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"taskproxy/internal/errs"
)

var ErrTaskIDRequired = errors.New("task id is required")

// TaskDetails fetches one task's current detail payload straight from the
// upstream, bypassing the store. Used for lookups by task id; per-user views
// go through ListUserTasks.
func (s *Service) TaskDetails(ctx context.Context, taskID string) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.client == nil {
		return nil, errors.New("upstream client is required")
	}

	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, ErrTaskIDRequired
	}

	payload, err := s.client.Details(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.setCacheBestEffort(ctx, detailCacheKey(taskID), string(payload))
	return payload, nil
}
