package tasks

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"taskproxy/internal/bootstrap/logging"
	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/errs"
	"taskproxy/internal/ports"
)

// Submit forwards proof of completion upstream and records the accepted
// submission locally, keyed by the upstream-issued task identifier.
//
// When the upstream accepts but its response carries no task identifier, no
// record is created and ErrTaskIDMissing is returned together with the raw
// payload in the result: the caller must not lose the upstream response.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, errs.Wrap(err, "check context")
	}
	if s.client == nil {
		return SubmitResult{}, errors.New("upstream client is required")
	}
	if s.repo == nil {
		return SubmitResult{}, errors.New("task repository is required")
	}
	if s.uow == nil {
		return SubmitResult{}, errors.New("unit of work is required")
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return SubmitResult{}, domaintasks.ErrUserIDRequired
	}
	jobID := strings.TrimSpace(input.JobID)
	if jobID == "" {
		return SubmitResult{}, domaintasks.ErrJobIDRequired
	}
	proof := strings.TrimSpace(input.JobProof)
	if proof == "" {
		return SubmitResult{}, domaintasks.ErrProofRequired
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.tasks"),
		slog.String("user_id", userID),
		slog.String("job_id", jobID),
	)

	payload, err := s.client.Submit(ctx, jobID, proof)
	if err != nil {
		return SubmitResult{}, err
	}

	jobTaskID, ok := extractTaskID(payload, s.profile.ExtractKeys, s.profile.ContainerKeys)
	if !ok {
		logging.Warn(logCtx, "submit accepted but task identifier missing")
		return SubmitResult{Submitted: payload}, domaintasks.ErrTaskIDMissing
	}

	var record ports.Submission
	var inserted bool
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		record, inserted, txErr = s.repo.InsertIfAbsent(txCtx, ports.SubmissionCreate{
			UserID:    userID,
			JobID:     jobID,
			JobTaskID: jobTaskID,
			Status:    domaintasks.InitialStatus,
			CreatedAt: nowUTCString(),
		})
		return txErr
	}); err != nil {
		// Recording failed but the upstream accepted: surface both.
		return SubmitResult{Submitted: payload}, errs.Wrap(err, "record submission")
	}

	logging.Info(logCtx, "submission recorded",
		slog.String("job_task_id", record.JobTaskID),
		slog.Bool("inserted", inserted),
	)

	return SubmitResult{
		Submitted: payload,
		Record: RecordRef{
			SubmissionID: record.SubmissionID,
			JobTaskID:    record.JobTaskID,
			Status:       record.Status,
		},
	}, nil
}
