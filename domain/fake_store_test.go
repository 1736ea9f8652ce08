package domain

import (
	"context"
	"sort"
)

// fakeStore is an in-memory TaskStorage. Any of the err fields, when set,
// is returned by the corresponding operation to simulate storage failures.
type fakeStore struct {
	tasks map[string]Task

	getErr    error
	listErr   error
	insertErr error
	saveErr   error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[string]Task{}}
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) ListTasks(ctx context.Context, ownerID string) ([]Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []Task{}
	for _, t := range f.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t Task) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) SaveTask(ctx context.Context, t Task) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}
