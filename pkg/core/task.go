package core

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus describes the lifecycle state of a command task.
type TaskStatus string

const (
	TaskStatusCreated   TaskStatus = "created"
	TaskStatusRouted    TaskStatus = "routed"
	TaskStatusExecuting TaskStatus = "executing"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// statusRank orders lifecycle states so transitions can be checked for
// monotonicity. Terminal states share the highest rank.
var statusRank = map[TaskStatus]int{
	TaskStatusCreated:   0,
	TaskStatusRouted:    1,
	TaskStatusExecuting: 2,
	TaskStatusCompleted: 3,
	TaskStatusError:     3,
}

// CanTransition reports whether moving from to next is a forward transition.
// Equal states are allowed so repeated updates at the same stage are no-ops.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if from == 3 && to == 3 && s != next {
		return false
	}
	return to >= from
}

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Task is the lifecycle record for one processed command.
type Task struct {
	ID        string
	Command   string
	Status    TaskStatus
	Context   map[string]any
	Result    *Result
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask creates a task in the created state with a generated ID.
func NewTask(command string, initialContext map[string]any) *Task {
	now := time.Now().UTC()
	ctx := make(map[string]any, len(initialContext))
	for k, v := range initialContext {
		ctx[k] = v
	}
	return &Task{
		ID:        uuid.NewString(),
		Command:   command,
		Status:    TaskStatusCreated,
		Context:   ctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep-enough copy of the task for safe hand-out: the
// context map is copied, the result pointer is shared read-only.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Context = make(map[string]any, len(t.Context))
	for k, v := range t.Context {
		cp.Context[k] = v
	}
	return &cp
}
