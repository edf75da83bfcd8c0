package tasks

import (
	"context"
	"encoding/json"

	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/ports"
)

// detailConcurrency bounds parallel upstream lookups within one
// reconciliation pass.
const detailConcurrency = 4

type Service struct {
	client  ports.UpstreamClient
	repo    ports.TaskRepository
	uow     ports.UnitOfWork
	cache   ports.Cache
	profile Profile
}

// NewService wires the proxy usecases with the upstream client, the
// submission store and the status policy profile.
func NewService(client ports.UpstreamClient, repo ports.TaskRepository, uow ports.UnitOfWork, cache ports.Cache, profile Profile) *Service {
	profile = profile.withDefaults()
	return &Service{
		client:  client,
		repo:    repo,
		uow:     uow,
		cache:   cache,
		profile: profile,
	}
}

func (s *Service) Policy() domaintasks.StatusPolicy {
	return s.profile.Policy
}

type SubmitInput struct {
	UserID   string
	JobID    string
	JobProof string
}

// RecordRef points at the stored submission created (or found) for a submit.
type RecordRef struct {
	SubmissionID uint64 `json:"submission_id"`
	JobTaskID    string `json:"job_task_id"`
	Status       string `json:"status"`
}

// SubmitResult always carries the raw upstream response; Record is zero when
// local recording failed.
type SubmitResult struct {
	Submitted json.RawMessage `json:"submitted"`
	Record    RecordRef       `json:"record"`
}

// TaskView is one entry of a user listing. Detail is the raw upstream detail
// payload when a lookup happened this pass; Error marks a per-record lookup
// failure (status is then the last stored value).
type TaskView struct {
	JobTaskID string          `json:"job_task_id"`
	Status    string          `json:"status"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type TaskList struct {
	Total int        `json:"total"`
	Tasks []TaskView `json:"tasks"`
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}

// getCacheBestEffort returns the cached value or nothing; cache failures are
// indistinguishable from misses on the read path.
func (s *Service) getCacheBestEffort(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return "", false
	}
	return value, true
}
