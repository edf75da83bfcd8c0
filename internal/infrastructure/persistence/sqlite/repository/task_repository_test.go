package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"taskproxy/internal/infrastructure/persistence/sqlite/model"
	"taskproxy/internal/ports"
)

func setupTaskRepository(t *testing.T) *TaskRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "tasks.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Submission{}, &model.ProxyKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewTaskRepository(db)
}

func testTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()
	now := testTimestamp()

	first, inserted, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u1",
		JobID:     "j1",
		JobTaskID: "T100",
		Status:    "submitted",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if !inserted {
		t.Fatalf("InsertIfAbsent() inserted = false, want true")
	}
	if first.SubmissionID == 0 {
		t.Fatalf("InsertIfAbsent() submission_id = 0")
	}

	second, inserted, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u1",
		JobID:     "j1",
		JobTaskID: "T100",
		Status:    "submitted",
		CreatedAt: testTimestamp(),
	})
	if err != nil {
		t.Fatalf("InsertIfAbsent() second call error = %v", err)
	}
	if inserted {
		t.Fatalf("InsertIfAbsent() second call inserted = true, want false")
	}
	if second.SubmissionID != first.SubmissionID {
		t.Fatalf("InsertIfAbsent() second call id = %d, want %d", second.SubmissionID, first.SubmissionID)
	}

	records, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListByUser() len = %d, want 1", len(records))
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()

	for _, taskID := range []string{"T1", "T2", "T3"} {
		if _, _, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
			UserID:    "u1",
			JobID:     "j1",
			JobTaskID: taskID,
			Status:    "submitted",
			CreatedAt: testTimestamp(),
		}); err != nil {
			t.Fatalf("insert %s: %v", taskID, err)
		}
	}
	if _, _, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u2",
		JobID:     "j2",
		JobTaskID: "T9",
		Status:    "submitted",
		CreatedAt: testTimestamp(),
	}); err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	records, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListByUser() len = %d, want 3", len(records))
	}
	if records[0].JobTaskID != "T3" || records[2].JobTaskID != "T1" {
		t.Fatalf("ListByUser() order = %s,%s,%s", records[0].JobTaskID, records[1].JobTaskID, records[2].JobTaskID)
	}
}

func TestUpdateStatusRespectsFrozenSet(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()
	frozen := []string{"confirmed", "submitted-confirmed"}

	if _, _, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u1",
		JobID:     "j1",
		JobTaskID: "T100",
		Status:    "submitted",
		CreatedAt: testTimestamp(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, "T100", "confirmed", testTimestamp(), frozen)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if !updated {
		t.Fatalf("UpdateStatus() updated = false, want true")
	}

	// Record is terminal now: further writes are no-ops, not errors.
	updated, err = repo.UpdateStatus(ctx, "T100", "submitted", testTimestamp(), frozen)
	if err != nil {
		t.Fatalf("UpdateStatus() on frozen error = %v", err)
	}
	if updated {
		t.Fatalf("UpdateStatus() on frozen updated = true, want false")
	}

	record, err := repo.GetByTaskID(ctx, "T100")
	if err != nil {
		t.Fatalf("GetByTaskID() error = %v", err)
	}
	if record.Status != "confirmed" {
		t.Fatalf("GetByTaskID() status = %q, want confirmed", record.Status)
	}
}

func TestUpdateStatusFreezesMixedCaseStatus(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()
	frozen := []string{"confirmed", "submitted-confirmed"}

	// Upstream casing is not under our control; a stored "Confirmed" must be
	// just as frozen as "confirmed".
	if _, _, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u1",
		JobID:     "j1",
		JobTaskID: "T200",
		Status:    "Confirmed",
		CreatedAt: testTimestamp(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, "T200", "submitted", testTimestamp(), frozen)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated {
		t.Fatalf("UpdateStatus() on mixed-case frozen updated = true, want false")
	}

	record, err := repo.GetByTaskID(ctx, "T200")
	if err != nil {
		t.Fatalf("GetByTaskID() error = %v", err)
	}
	if record.Status != "Confirmed" {
		t.Fatalf("GetByTaskID() status = %q, want Confirmed", record.Status)
	}
}

func TestUpdateStatusMissingRecord(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()

	if _, err := repo.UpdateStatus(ctx, "T404", "confirmed", testTimestamp(), nil); err != ports.ErrSubmissionNotFound {
		t.Fatalf("UpdateStatus() error = %v, want ErrSubmissionNotFound", err)
	}
}

func TestHiddenRecordStaysRetrievable(t *testing.T) {
	repo := setupTaskRepository(t)
	ctx := context.Background()

	if _, _, err := repo.InsertIfAbsent(ctx, ports.SubmissionCreate{
		UserID:    "u1",
		JobID:     "j1",
		JobTaskID: "T100",
		Status:    "declined",
		CreatedAt: testTimestamp(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// The store does not filter hidden statuses; that is reconciler policy.
	records, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 1 || records[0].Status != "declined" {
		t.Fatalf("ListByUser() = %+v", records)
	}

	record, err := repo.GetByTaskID(ctx, "T100")
	if err != nil {
		t.Fatalf("GetByTaskID() error = %v", err)
	}
	if record.Status != "declined" {
		t.Fatalf("GetByTaskID() status = %q", record.Status)
	}
}
