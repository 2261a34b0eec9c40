package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jllopis/aura/pkg/core"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestArchiveRecordAndGet(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	task := core.NewTask("post an update", map[string]any{"intent": "social"})
	task.Status = core.TaskStatusCompleted
	result := core.Success("posted")
	task.Result = &result
	task.UpdatedAt = time.Now().UTC()

	if err := archive.Record(ctx, task); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := archive.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected archived task")
	}
	if got.Status != core.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.Result == nil || got.Result.Message != "posted" {
		t.Fatalf("expected result to round-trip, got %+v", got.Result)
	}
	if got.Context["intent"] != "social" {
		t.Fatalf("expected context to round-trip, got %v", got.Context)
	}
}

func TestArchiveUpsert(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	task := core.NewTask("cmd", nil)
	task.Status = core.TaskStatusExecuting
	if err := archive.Record(ctx, task); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	task.Status = core.TaskStatusError
	task.Error = "both paths failed"
	if err := archive.Record(ctx, task); err != nil {
		t.Fatalf("second Record failed: %v", err)
	}

	got, err := archive.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != core.TaskStatusError || got.Error != "both paths failed" {
		t.Fatalf("expected upserted record, got %+v", got)
	}
}

func TestArchiveListByStatus(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		task := core.NewTask("cmd", nil)
		task.Status = core.TaskStatusCompleted
		if err := archive.Record(ctx, task); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	failed := core.NewTask("cmd", nil)
	failed.Status = core.TaskStatusError
	if err := archive.Record(ctx, failed); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	completed, err := archive.ListByStatus(ctx, core.TaskStatusCompleted, 10)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(completed) != 3 {
		t.Fatalf("expected 3 completed tasks, got %d", len(completed))
	}
}
