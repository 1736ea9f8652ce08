package domain

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ActionState tracks where the orchestrator is in the confirm-then-commit
// protocol.
type ActionState int

const (
	StateIdle ActionState = iota
	StateConfirming
	StateCommitting
)

var (
	// ErrActionPending is returned when a new action is requested while an
	// earlier one still awaits confirmation.
	ErrActionPending = errors.New("another action is awaiting confirmation")
	// ErrNoPendingAction is returned by Confirm when nothing awaits
	// confirmation.
	ErrNoPendingAction = errors.New("no action is awaiting confirmation")
)

// Confirmation is the prompt a presentation layer shows before a pending
// action commits. Irreversible marks permanent deletion.
type Confirmation struct {
	Title        string
	Message      string
	ConfirmText  string
	Danger       bool
	Irreversible bool
}

// TaskActions is the slice of the task service the orchestrator drives.
type TaskActions interface {
	List(ctx context.Context, ownerID string) ([]Task, error)
	Update(ctx context.Context, ownerID, id string, upd TaskUpdate) (Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type pendingAction struct {
	taskID       string
	permanent    bool
	restore      bool
	confirmation Confirmation
}

// Orchestrator mediates one user session's destructive actions. Delete and
// restore interpose a confirmation; status changes commit immediately. After
// every successful commit the task collection is re-listed and re-projected,
// so the held view always derives from the store's current state. A failed
// commit leaves the previous view intact.
type Orchestrator struct {
	svc     TaskActions
	ownerID string

	mu      sync.Mutex
	state   ActionState
	pending *pendingAction
	filter  Filter
	search  string
	tasks   []Task
	columns []Column
}

// NewOrchestrator creates an orchestrator for the given owner, starting on
// the board view with no search term. Call Refresh to load the first view.
func NewOrchestrator(svc TaskActions, ownerID string) *Orchestrator {
	return &Orchestrator{svc: svc, ownerID: ownerID, filter: FilterAll, columns: Project(nil, FilterAll, "")}
}

// State returns the current protocol state.
func (o *Orchestrator) State() ActionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Columns returns the most recently projected view. The result is a copy;
// callers may mutate it without corrupting the held view.
func (o *Orchestrator) Columns() []Column {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Column, len(o.columns))
	for i, col := range o.columns {
		tasks := make([]Task, len(col.Tasks))
		copy(tasks, col.Tasks)
		col.Tasks = tasks
		out[i] = col
	}
	return out
}

// Refresh re-lists the owner's tasks and recomputes the projection. On
// failure the previous view is kept.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	tasks, err := o.svc.List(ctx, o.ownerID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.tasks = tasks
	o.columns = Project(tasks, o.filter, o.search)
	o.mu.Unlock()
	return nil
}

// SetFilter switches the view mode and reprojects the held collection.
func (o *Orchestrator) SetFilter(f Filter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = f
	o.columns = Project(o.tasks, o.filter, o.search)
}

// SetSearchTerm narrows the view to matching tasks and reprojects.
func (o *Orchestrator) SetSearchTerm(term string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.search = term
	o.columns = Project(o.tasks, o.filter, o.search)
}

// RequestDelete begins a delete action for the task. The branch between
// soft-delete and permanent deletion is decided here, from the task's status
// at this instant, and is not re-checked at commit time. A task already in
// trash gets an irreversible prompt and will be removed permanently; any
// other task gets a reversible prompt and will be moved to trash.
func (o *Orchestrator) RequestDelete(taskID string) (Confirmation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return Confirmation{}, ErrActionPending
	}

	var target *Task
	for i := range o.tasks {
		if o.tasks[i].ID == taskID {
			target = &o.tasks[i]
			break
		}
	}
	if target == nil {
		return Confirmation{}, ErrNotFound
	}

	permanent := target.Status == StatusTrash
	c := Confirmation{
		Title:       "Move to Trash?",
		Message:     "Are you sure you want to move this task to trash?",
		ConfirmText: "Delete",
		Danger:      true,
	}
	if permanent {
		c.Title = "Delete Task Forever?"
		c.Message = "This action cannot be undone. Are you sure you want to permanently delete this task?"
		c.Irreversible = true
	}

	o.state = StateConfirming
	o.pending = &pendingAction{taskID: taskID, permanent: permanent, confirmation: c}
	return c, nil
}

// RequestRestore begins a restore action. Restoring always lands on the todo
// column regardless of the status the task held before it was trashed.
func (o *Orchestrator) RequestRestore(taskID string) (Confirmation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return Confirmation{}, ErrActionPending
	}
	c := Confirmation{
		Title:       "Restore Task?",
		Message:     "Do you want to restore this task to your board?",
		ConfirmText: "Restore",
	}
	o.state = StateConfirming
	o.pending = &pendingAction{taskID: taskID, restore: true, confirmation: c}
	return c, nil
}

// Cancel abandons a pending action with no side effects. Cancelling when
// nothing is pending is a no-op.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateConfirming {
		o.state = StateIdle
		o.pending = nil
	}
}

// Confirm commits the pending action. The mutation runs to completion or
// failure and is not cancellable once begun. On success the view is refreshed
// from the store; on failure the prior view is kept and the error is returned
// for the presentation layer to surface.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateConfirming || o.pending == nil {
		o.mu.Unlock()
		return ErrNoPendingAction
	}
	p := o.pending
	o.state = StateCommitting
	o.mu.Unlock()

	err := o.commit(ctx, p)

	o.mu.Lock()
	o.state = StateIdle
	o.pending = nil
	o.mu.Unlock()

	if err != nil {
		log.WithFields(log.Fields{"task": p.taskID, "permanent": p.permanent}).WithError(err).Warn("action commit failed")
		return err
	}
	return o.Refresh(ctx)
}

// ChangeStatus moves a task to the target column immediately, without a
// confirmation step, then refreshes the view.
func (o *Orchestrator) ChangeStatus(ctx context.Context, taskID string, target Status) error {
	if !target.Valid() {
		return ValidationError{Field: "status", Reason: "unknown status " + string(target)}
	}
	if _, err := o.svc.Update(ctx, o.ownerID, taskID, TaskUpdate{Status: &target}); err != nil {
		return err
	}
	return o.Refresh(ctx)
}

func (o *Orchestrator) commit(ctx context.Context, p *pendingAction) error {
	switch {
	case p.restore:
		status := StatusTodo
		_, err := o.svc.Update(ctx, o.ownerID, p.taskID, TaskUpdate{Status: &status})
		return err
	case p.permanent:
		return o.svc.Delete(ctx, o.ownerID, p.taskID)
	default:
		status := StatusTrash
		_, err := o.svc.Update(ctx, o.ownerID, p.taskID, TaskUpdate{Status: &status})
		return err
	}
}
