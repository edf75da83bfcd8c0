package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskproxy/internal/errs"
	"taskproxy/internal/infrastructure/persistence/sqlite/model"
	"taskproxy/internal/ports"
)

type TaskRepository struct {
	db *gorm.DB
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *TaskRepository) InsertIfAbsent(ctx context.Context, input ports.SubmissionCreate) (ports.Submission, bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Submission{}, false, err
	}

	jobTaskID := strings.TrimSpace(input.JobTaskID)
	if jobTaskID == "" {
		return ports.Submission{}, false, errors.New("job task id is required")
	}

	row := model.Submission{
		UserID:    input.UserID,
		JobID:     input.JobID,
		JobTaskID: jobTaskID,
		Status:    input.Status,
		CreatedAt: input.CreatedAt,
		UpdatedAt: input.CreatedAt,
	}

	// The conflict target makes test-and-insert a single atomic statement;
	// concurrent submitters of the same task id leave exactly one row.
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_task_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.Submission{}, false, errs.Wrap(result.Error, "insert submission")
	}
	inserted := result.RowsAffected > 0

	// Re-read so the losing writer still gets the surviving record.
	record, err := getByTaskID(db, jobTaskID)
	if err != nil {
		return ports.Submission{}, false, err
	}
	return record, inserted, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]ports.Submission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Submission
	if err := db.
		Where("user_id = ?", userID).
		Order("submission_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query submissions by user")
	}

	items := make([]ports.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSubmission(row))
	}
	return items, nil
}

func (r *TaskRepository) GetByTaskID(ctx context.Context, jobTaskID string) (ports.Submission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Submission{}, err
	}
	return getByTaskID(db, jobTaskID)
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, jobTaskID string, status string, updatedAt string, frozen []string) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	query := db.Model(&model.Submission{}).Where("job_task_id = ?", jobTaskID)
	if len(frozen) > 0 {
		// Guard in the statement itself: a record that went terminal under a
		// concurrent pass stays untouched. The frozen set is normalized to
		// lower case, the stored value may not be.
		query = query.Where("lower(status) NOT IN ?", frozen)
	}

	result := query.Updates(map[string]any{
		"status":     status,
		"updated_at": updatedAt,
	})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update submission status")
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// No row changed: either the record is frozen (fine, no-op) or missing.
	if _, err := getByTaskID(db, jobTaskID); err != nil {
		return false, err
	}
	return false, nil
}

func getByTaskID(db *gorm.DB, jobTaskID string) (ports.Submission, error) {
	var row model.Submission
	if err := db.Where("job_task_id = ?", jobTaskID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Submission{}, ports.ErrSubmissionNotFound
		}
		return ports.Submission{}, errs.Wrap(err, "query submission")
	}
	return mapSubmission(row), nil
}

func mapSubmission(row model.Submission) ports.Submission {
	return ports.Submission{
		SubmissionID: row.SubmissionID,
		UserID:       row.UserID,
		JobID:        row.JobID,
		JobTaskID:    row.JobTaskID,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
