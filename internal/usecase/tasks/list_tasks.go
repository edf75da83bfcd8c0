package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"taskproxy/internal/bootstrap/logging"
	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/errs"
	"taskproxy/internal/ports"
)

// ListUserTasks runs one reconciliation pass for the user and returns the
// policy-filtered view of their submissions, most recently submitted first.
//
// Hidden records are dropped, terminal records are emitted without touching
// the upstream, and every remaining record gets exactly one details lookup.
// A failed lookup never aborts the pass: the record is emitted with its last
// stored status and an error note, alongside the successfully reconciled
// ones.
func (s *Service) ListUserTasks(ctx context.Context, userID string) (TaskList, error) {
	if ctx == nil {
		return TaskList{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return TaskList{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return TaskList{}, errors.New("task repository is required")
	}
	if s.client == nil {
		return TaskList{}, errors.New("upstream client is required")
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TaskList{}, domaintasks.ErrUserIDRequired
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.tasks"),
		slog.String("user_id", userID),
	)

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return TaskList{}, errs.Wrap(err, "list submissions")
	}

	type slot struct {
		view    TaskView
		include bool
	}
	slots := make([]slot, len(records))

	// Lookups for different records are independent; the group only bounds
	// fan-out. Goroutines never return errors, so one record's failure
	// cannot cancel the rest of the pass.
	var group errgroup.Group
	group.SetLimit(detailConcurrency)

	for i, record := range records {
		switch s.profile.Policy.Classify(record.Status) {
		case domaintasks.StatusHidden:
			// Invisible to the user, retained in storage.
		case domaintasks.StatusTerminal:
			slots[i] = slot{
				view: TaskView{
					JobTaskID: record.JobTaskID,
					Status:    record.Status,
				},
				include: true,
			}
		default:
			i, record := i, record
			group.Go(func() error {
				view, include := s.reconcileRecord(logCtx, record)
				slots[i] = slot{view: view, include: include}
				return nil
			})
		}
	}
	_ = group.Wait()

	views := make([]TaskView, 0, len(records))
	for _, entry := range slots {
		if entry.include {
			views = append(views, entry.view)
		}
	}

	return TaskList{
		Total: len(views),
		Tasks: views,
	}, nil
}

// reconcileRecord performs the single allowed lookup for one active record
// and writes back a changed status. include=false means the record became
// hidden.
func (s *Service) reconcileRecord(ctx context.Context, record ports.Submission) (TaskView, bool) {
	payload, err := s.client.Details(ctx, record.JobTaskID)
	if err != nil {
		logging.Warn(ctx, "details lookup failed",
			slog.String("job_task_id", record.JobTaskID),
			slog.Any("err", errs.Loggable(err)),
		)
		view := TaskView{
			JobTaskID: record.JobTaskID,
			Status:    record.Status,
			Error:     err.Error(),
		}
		// The last successful payload is better than no detail during an
		// upstream outage.
		if cached, ok := s.getCacheBestEffort(ctx, detailCacheKey(record.JobTaskID)); ok {
			view.Detail = json.RawMessage(cached)
		}
		return view, true
	}

	s.setCacheBestEffort(ctx, detailCacheKey(record.JobTaskID), string(payload))

	status := statusField(payload, s.profile.ContainerKeys)
	if status == "" || status == record.Status {
		return TaskView{
			JobTaskID: record.JobTaskID,
			Status:    record.Status,
			Detail:    payload,
		}, true
	}

	if _, err := s.repo.UpdateStatus(ctx, record.JobTaskID, status, nowUTCString(), s.profile.Policy.TerminalStatuses()); err != nil {
		logging.Error(ctx, "status write-back failed",
			slog.String("job_task_id", record.JobTaskID),
			slog.Any("err", errs.Loggable(err)),
		)
		return TaskView{
			JobTaskID: record.JobTaskID,
			Status:    record.Status,
			Detail:    payload,
			Error:     "status write-back failed: " + err.Error(),
		}, true
	}

	if s.profile.Policy.Classify(status) == domaintasks.StatusHidden {
		return TaskView{}, false
	}

	return TaskView{
		JobTaskID: record.JobTaskID,
		Status:    status,
		Detail:    payload,
	}, true
}
