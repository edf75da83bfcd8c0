package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"taskproxy/internal/ports"
)

func mustSubmit(t *testing.T, svc *Service, client *fakeUpstream, userID string, jobID string, taskID string) {
	t.Helper()
	client.mu.Lock()
	client.submitPayload = json.RawMessage(`{"submitted":{"job_task_id":"` + taskID + `"}}`)
	client.mu.Unlock()
	if _, err := svc.Submit(context.Background(), SubmitInput{UserID: userID, JobID: jobID, JobProof: "proof"}); err != nil {
		t.Fatalf("Submit(%s) error = %v", taskID, err)
	}
}

func TestListUserTasksScenario(t *testing.T) {
	svc, client, _, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T100")
	client.detailPayloads["T100"] = json.RawMessage(`{"status":"confirmed"}`)

	list, err := svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}
	if list.Total != 1 || len(list.Tasks) != 1 {
		t.Fatalf("ListUserTasks() total = %d, tasks = %d", list.Total, len(list.Tasks))
	}
	if list.Tasks[0].JobTaskID != "T100" || list.Tasks[0].Status != "confirmed" {
		t.Fatalf("task = %+v", list.Tasks[0])
	}
	if client.callCount("T100") != 1 {
		t.Fatalf("details calls = %d, want 1", client.callCount("T100"))
	}

	// Terminal now: a further pass must issue zero upstream calls for T100.
	list, err = svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() second pass error = %v", err)
	}
	if list.Tasks[0].Status != "confirmed" {
		t.Fatalf("second pass status = %q", list.Tasks[0].Status)
	}
	if len(list.Tasks[0].Detail) != 0 {
		t.Fatalf("terminal record carried detail: %s", list.Tasks[0].Detail)
	}
	if client.callCount("T100") != 1 {
		t.Fatalf("details calls after terminal = %d, want 1", client.callCount("T100"))
	}
}

func TestListUserTasksPartialFailureIsolation(t *testing.T) {
	svc, client, _, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	mustSubmit(t, svc, client, "u1", "j2", "T2")
	client.detailErrs["T1"] = ports.ErrUpstreamUnreachable
	client.detailPayloads["T2"] = json.RawMessage(`{"status":"confirmed"}`)

	list, err := svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}

	byID := map[string]TaskView{}
	for _, task := range list.Tasks {
		byID[task.JobTaskID] = task
	}

	failed := byID["T1"]
	if failed.Error == "" {
		t.Fatalf("failed record carries no error: %+v", failed)
	}
	if failed.Status != "submitted" {
		t.Fatalf("failed record status = %q, want stored value", failed.Status)
	}

	ok := byID["T2"]
	if ok.Status != "confirmed" || ok.Error != "" {
		t.Fatalf("succeeded record = %+v", ok)
	}
}

func TestListUserTasksServesCachedDetailDuringOutage(t *testing.T) {
	svc, client, _, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	client.detailPayloads["T1"] = json.RawMessage(`{"status":"in-review","note":"x"}`)

	// First pass succeeds and leaves the raw payload in the cache.
	if _, err := svc.ListUserTasks(ctx, "u1"); err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}

	client.mu.Lock()
	client.detailErrs["T1"] = ports.ErrUpstreamUnreachable
	client.mu.Unlock()

	list, err := svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() during outage error = %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("total = %d, want 1", list.Total)
	}
	task := list.Tasks[0]
	if task.Status != "in-review" || task.Error == "" {
		t.Fatalf("outage record = %+v", task)
	}
	if string(task.Detail) != `{"status":"in-review","note":"x"}` {
		t.Fatalf("cached detail not served: %s", task.Detail)
	}
}

func TestListUserTasksHiddenSuppressedNotDeleted(t *testing.T) {
	svc, client, repo, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	client.detailPayloads["T1"] = json.RawMessage(`{"status":"declined"}`)

	list, err := svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}
	if list.Total != 0 || len(list.Tasks) != 0 {
		t.Fatalf("hidden record surfaced: %+v", list.Tasks)
	}

	// Suppressed from listings on later passes too, with no further lookups.
	if _, err := svc.ListUserTasks(ctx, "u1"); err != nil {
		t.Fatalf("ListUserTasks() second pass error = %v", err)
	}
	if client.callCount("T1") != 1 {
		t.Fatalf("details calls = %d, want 1", client.callCount("T1"))
	}

	// The record stays in storage for audit.
	record, err := repo.GetByTaskID(ctx, "T1")
	if err != nil {
		t.Fatalf("GetByTaskID() error = %v", err)
	}
	if record.Status != "declined" {
		t.Fatalf("stored status = %q", record.Status)
	}
}

func TestListUserTasksUnknownStatusStaysActive(t *testing.T) {
	svc, client, _, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	client.detailPayloads["T1"] = json.RawMessage(`{"status":"in-review"}`)

	for pass := 0; pass < 2; pass++ {
		list, err := svc.ListUserTasks(ctx, "u1")
		if err != nil {
			t.Fatalf("ListUserTasks() pass %d error = %v", pass, err)
		}
		if list.Tasks[0].Status != "in-review" {
			t.Fatalf("pass %d status = %q", pass, list.Tasks[0].Status)
		}
	}

	// Not declared terminal, so it keeps being re-queried.
	if client.callCount("T1") != 2 {
		t.Fatalf("details calls = %d, want 2", client.callCount("T1"))
	}
}

func TestListUserTasksNewestFirst(t *testing.T) {
	svc, client, _, _ := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	mustSubmit(t, svc, client, "u1", "j2", "T2")
	mustSubmit(t, svc, client, "u1", "j3", "T3")

	list, err := svc.ListUserTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}
	if len(list.Tasks) != 3 {
		t.Fatalf("tasks = %d", len(list.Tasks))
	}
	if list.Tasks[0].JobTaskID != "T3" || list.Tasks[2].JobTaskID != "T1" {
		t.Fatalf("order = %s,%s,%s", list.Tasks[0].JobTaskID, list.Tasks[1].JobTaskID, list.Tasks[2].JobTaskID)
	}
}

func TestListUserTasksCachesDetailPayload(t *testing.T) {
	svc, client, _, cache := setupService(t)
	ctx := context.Background()

	mustSubmit(t, svc, client, "u1", "j1", "T1")
	client.detailPayloads["T1"] = json.RawMessage(`{"status":"in-review","note":"almost"}`)

	if _, err := svc.ListUserTasks(ctx, "u1"); err != nil {
		t.Fatalf("ListUserTasks() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "task_detail:T1")
	if err != nil || !found {
		t.Fatalf("cache Get() = found %v, err %v", found, err)
	}
	if value != `{"status":"in-review","note":"almost"}` {
		t.Fatalf("cached detail = %s", value)
	}
}

func TestListUserTasksStoreReadFailure(t *testing.T) {
	svc, _, _, _ := setupService(t)

	if _, err := svc.ListUserTasks(context.Background(), "  "); err == nil {
		t.Fatalf("ListUserTasks() error = nil, want user id error")
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ListUserTasks(canceled, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListUserTasks() error = %v, want context.Canceled", err)
	}
}
