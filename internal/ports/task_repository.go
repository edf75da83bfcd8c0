package ports

import (
	"context"
	"errors"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Submission is one recorded proof-of-completion submission. JobTaskID is the
// upstream-issued task identifier and the reconciliation key; it is unique
// across all records.
type Submission struct {
	SubmissionID uint64
	UserID       string
	JobID        string
	JobTaskID    string
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

type SubmissionCreate struct {
	UserID    string
	JobID     string
	JobTaskID string
	Status    string
	CreatedAt string
}

type TaskRepository interface {
	// InsertIfAbsent creates the record unless JobTaskID already exists.
	// It returns the surviving record either way; inserted reports whether
	// this call created it. Test-and-insert is atomic: two concurrent calls
	// with the same JobTaskID yield exactly one row and no error.
	InsertIfAbsent(ctx context.Context, input SubmissionCreate) (record Submission, inserted bool, err error)

	// ListByUser returns every record for the user, hidden ones included,
	// most recently submitted first. Hidden filtering is reconciler policy,
	// not a storage concern.
	ListByUser(ctx context.Context, userID string) ([]Submission, error)

	GetByTaskID(ctx context.Context, jobTaskID string) (Submission, error)

	// UpdateStatus overwrites status and updated_at unless the stored status
	// is already in frozen. The guard lives in the same statement as the
	// write, so a racing reconciliation cannot thaw a terminal record.
	// updated reports whether a row changed.
	UpdateStatus(ctx context.Context, jobTaskID string, status string, updatedAt string, frozen []string) (updated bool, err error)
}
