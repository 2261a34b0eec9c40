// Package ledger tracks the lifecycle of every processed command.
// The in-memory store is the source of truth while a command is in
// flight; terminal records can additionally be archived to SQLite.
package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jllopis/aura/pkg/core"
)

// Update carries the fields to merge into a task record. Nil or zero
// fields are left untouched; ContextPatch is merged key-wise, never
// replacing the whole map.
type Update struct {
	Status       core.TaskStatus
	Result       *core.Result
	Error        string
	ContextPatch map[string]any
}

// Ledger is a concurrent in-memory task store. Each command owns a
// distinct task id, so cross-task mutation never conflicts; per-task
// mutation is serialized by the store lock.
type Ledger struct {
	mu     sync.RWMutex
	tasks  map[string]*core.Task
	logger *slog.Logger
}

// New creates an empty ledger.
func New(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		tasks:  make(map[string]*core.Task),
		logger: logger,
	}
}

// Create inserts a new task in the created state and returns its id.
// It always succeeds.
func (l *Ledger) Create(command string, initialContext map[string]any) string {
	task := core.NewTask(command, initialContext)
	l.mu.Lock()
	l.tasks[task.ID] = task
	l.mu.Unlock()
	return task.ID
}

// Apply merges the non-empty fields of up into the task. Unknown ids
// are logged and ignored; callers must not depend on that being an
// error. Status changes that would move backwards are dropped so the
// lifecycle stays monotonic.
func (l *Ledger) Apply(taskID string, up Update) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task, ok := l.tasks[taskID]
	if !ok {
		l.logger.Warn("update for unknown task", "task_id", taskID)
		return
	}

	if up.Status != "" {
		if task.Status.CanTransition(up.Status) {
			task.Status = up.Status
		} else {
			l.logger.Warn("dropping non-monotonic status transition",
				"task_id", taskID, "from", task.Status, "to", up.Status)
		}
	}
	if up.Result != nil {
		task.Result = up.Result
	}
	if up.Error != "" {
		task.Error = up.Error
	}
	for k, v := range up.ContextPatch {
		task.Context[k] = v
	}
	task.UpdatedAt = time.Now().UTC()
}

// Get returns a copy of the task, or nil if it does not exist.
func (l *Ledger) Get(taskID string) *core.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	task, ok := l.tasks[taskID]
	if !ok {
		return nil
	}
	return task.Clone()
}

// Delete removes a task record. Removing an unknown id is a no-op.
func (l *Ledger) Delete(taskID string) {
	l.mu.Lock()
	delete(l.tasks, taskID)
	l.mu.Unlock()
}

// List returns copies of all task records.
func (l *Ledger) List() []*core.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*core.Task, 0, len(l.tasks))
	for _, task := range l.tasks {
		out = append(out, task.Clone())
	}
	return out
}

// Len returns the number of tracked tasks.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tasks)
}
