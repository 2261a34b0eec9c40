package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jllopis/aura/pkg/core"
)

func TestCreateAndGet(t *testing.T) {
	l := New(nil)
	id := l.Create("schedule a meeting", map[string]any{"source": "test"})

	task := l.Get(id)
	if task == nil {
		t.Fatalf("expected task to exist")
	}
	if task.Status != core.TaskStatusCreated {
		t.Fatalf("expected created status, got %s", task.Status)
	}
	if task.Context["source"] != "test" {
		t.Fatalf("expected initial context to be stored")
	}
	if task.Command != "schedule a meeting" {
		t.Fatalf("expected command to be stored")
	}
}

func TestApplyMergesContext(t *testing.T) {
	l := New(nil)
	id := l.Create("cmd", map[string]any{"a": 1})

	l.Apply(id, Update{ContextPatch: map[string]any{"intent": "calendar"}})
	l.Apply(id, Update{ContextPatch: map[string]any{"tool": "schedule_calendar_event"}})

	task := l.Get(id)
	if task.Context["a"] != 1 || task.Context["intent"] != "calendar" || task.Context["tool"] != "schedule_calendar_event" {
		t.Fatalf("expected context to accumulate, got %v", task.Context)
	}
}

func TestStatusMonotonic(t *testing.T) {
	l := New(nil)
	id := l.Create("cmd", nil)

	l.Apply(id, Update{Status: core.TaskStatusRouted})
	l.Apply(id, Update{Status: core.TaskStatusExecuting})
	l.Apply(id, Update{Status: core.TaskStatusCompleted})

	// Regressions must be dropped.
	l.Apply(id, Update{Status: core.TaskStatusExecuting})
	if got := l.Get(id).Status; got != core.TaskStatusCompleted {
		t.Fatalf("expected status to stay completed, got %s", got)
	}

	// Terminal states never flip.
	l.Apply(id, Update{Status: core.TaskStatusError})
	if got := l.Get(id).Status; got != core.TaskStatusCompleted {
		t.Fatalf("expected completed to not flip to error, got %s", got)
	}
}

func TestApplyUnknownTaskIsNoOp(t *testing.T) {
	l := New(nil)
	// Must not panic or create a record.
	l.Apply("missing", Update{Status: core.TaskStatusRouted, Error: "x"})
	if l.Len() != 0 {
		t.Fatalf("expected no records, got %d", l.Len())
	}
}

func TestDelete(t *testing.T) {
	l := New(nil)
	id := l.Create("cmd", nil)
	l.Delete(id)
	if l.Get(id) != nil {
		t.Fatalf("expected task to be removed")
	}
	l.Delete(id) // second delete is a no-op
}

func TestConcurrentUpdates(t *testing.T) {
	l := New(nil)
	id := l.Create("cmd", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Apply(id, Update{ContextPatch: map[string]any{fmt.Sprintf("k%d", n): n}})
		}(i)
	}
	// Concurrent creates from other commands must not interfere.
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Create("other", nil)
		}()
	}
	wg.Wait()

	task := l.Get(id)
	if len(task.Context) != 50 {
		t.Fatalf("expected 50 context entries, got %d", len(task.Context))
	}
	if l.Len() != 21 {
		t.Fatalf("expected 21 tasks, got %d", l.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	l := New(nil)
	id := l.Create("cmd", map[string]any{"a": 1})

	snapshot := l.Get(id)
	snapshot.Context["mutated"] = true

	if _, ok := l.Get(id).Context["mutated"]; ok {
		t.Fatalf("expected Get to return an isolated copy")
	}
}
