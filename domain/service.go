package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskStorage defines the persistence operations the service relies on. Every
// call touches at most one record; GetTask returns (nil, nil) when no record
// exists under the id.
type TaskStorage interface {
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]Task, error)
	InsertTask(ctx context.Context, t Task) error
	SaveTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// TaskService enforces ownership and validates mutations against the task
// store. It is the only component that creates or destroys task records.
type TaskService struct{ st TaskStorage }

func NewTaskService(st TaskStorage) TaskService { return TaskService{st: st} }

// List returns the owner's tasks, newest first. An empty board is not an
// error.
func (s TaskService) List(ctx context.Context, ownerID string) ([]Task, error) {
	return s.st.ListTasks(ctx, ownerID)
}

// Create persists a new task for ownerID. The owner recorded on the task is
// always the authenticated caller, regardless of anything in the payload.
func (s TaskService) Create(ctx context.Context, ownerID string, draft NewTask) (Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return Task{}, ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if draft.Status != "" && !draft.Status.Valid() {
		return Task{}, ValidationError{Field: "status", Reason: "unknown status " + string(draft.Status)}
	}
	if draft.Priority != "" && !draft.Priority.Valid() {
		return Task{}, ValidationError{Field: "priority", Reason: "unknown priority " + string(draft.Priority)}
	}

	t := Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      draft.Status,
		Deadline:    draft.Deadline,
		CreatedAt:   time.Now().UTC(),
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := s.st.InsertTask(ctx, t); err != nil {
		return Task{}, err
	}
	log.WithFields(log.Fields{"task": t.ID, "status": t.Status}).Debug("task created")
	return t, nil
}

// Update applies the fields set in upd to the task and returns the result.
// Fields left nil keep their prior values; an unrecognized status or priority
// is ignored rather than applied. Status transitions, including soft-delete
// to trash and restore out of it, all go through here.
func (s TaskService) Update(ctx context.Context, ownerID, id string, upd TaskUpdate) (Task, error) {
	t, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return Task{}, ValidationError{Field: "title", Reason: "must not be empty"}
		}
		t.Title = title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil && upd.Status.Valid() {
		t.Status = *upd.Status
	}
	if upd.Priority != nil && upd.Priority.Valid() {
		t.Priority = *upd.Priority
	}
	if upd.Deadline != nil {
		t.Deadline = upd.Deadline
	}

	if err := s.st.SaveTask(ctx, *t); err != nil {
		return Task{}, err
	}
	return *t, nil
}

// Delete permanently removes the task. It is unconditionally destructive once
// ownership is confirmed; routing trash-first is the orchestrator's concern.
func (s TaskService) Delete(ctx context.Context, ownerID, id string) error {
	t, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.st.DeleteTask(ctx, t.OwnerID, t.ID); err != nil {
		return err
	}
	log.WithField("task", t.ID).Debug("task permanently deleted")
	return nil
}

// owned fetches the task and verifies the caller owns it. A mismatched owner
// is an authorization failure, never a not-found.
func (s TaskService) owned(ctx context.Context, ownerID, id string) (*Task, error) {
	t, err := s.st.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return t, nil
}
