package domain

import (
	"reflect"
	"testing"
)

func boardTasks() []Task {
	return []Task{
		{ID: "1", Title: "Buy milk", Status: StatusTodo},
		{ID: "2", Title: "Ship release", Description: "cut the tag", Status: StatusInProgress},
		{ID: "3", Title: "Write report", Status: StatusCompleted},
		{ID: "4", Title: "Old draft", Status: StatusTrash},
	}
}

func columnByStatus(t *testing.T, cols []Column, st Status) Column {
	t.Helper()
	for _, c := range cols {
		if c.Status == st {
			return c
		}
	}
	t.Fatalf("no column for status %q in %+v", st, cols)
	return Column{}
}

func TestProjectAllSplitsAcrossThreeColumns(t *testing.T) {
	cols := Project(boardTasks(), FilterAll, "")
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	todo := columnByStatus(t, cols, StatusTodo)
	if len(todo.Tasks) != 1 || todo.Tasks[0].ID != "1" {
		t.Fatalf("unexpected todo column: %+v", todo.Tasks)
	}
	for _, c := range cols {
		for _, task := range c.Tasks {
			if task.Status == StatusTrash {
				t.Fatal("trash tasks must not appear on the board view")
			}
		}
	}
}

func TestProjectSingleColumnFilters(t *testing.T) {
	cases := []struct {
		filter Filter
		status Status
		wantID string
	}{
		{FilterCompleted, StatusCompleted, "3"},
		{FilterInProgress, StatusInProgress, "2"},
		{FilterTrash, StatusTrash, "4"},
	}
	for _, tc := range cases {
		cols := Project(boardTasks(), tc.filter, "")
		if len(cols) != 1 {
			t.Fatalf("filter %q: expected exactly one column, got %d", tc.filter, len(cols))
		}
		if cols[0].Status != tc.status {
			t.Fatalf("filter %q: unexpected column status %q", tc.filter, cols[0].Status)
		}
		if len(cols[0].Tasks) != 1 || cols[0].Tasks[0].ID != tc.wantID {
			t.Fatalf("filter %q: unexpected tasks %+v", tc.filter, cols[0].Tasks)
		}
	}
}

func TestProjectColumnSetIndependentOfTasks(t *testing.T) {
	cols := Project(nil, FilterCompleted, "")
	if len(cols) != 1 || cols[0].Status != StatusCompleted {
		t.Fatalf("expected an empty completed column, got %+v", cols)
	}
	if cols[0].Tasks == nil || len(cols[0].Tasks) != 0 {
		t.Fatalf("expected empty task list, got %+v", cols[0].Tasks)
	}
	if cols := Project(nil, FilterAll, ""); len(cols) != 3 {
		t.Fatalf("expected 3 board columns with no tasks, got %d", len(cols))
	}
}

func TestProjectSearchIsCaseInsensitive(t *testing.T) {
	cols := Project([]Task{{ID: "1", Title: "Buy milk", Status: StatusTodo}}, FilterAll, "MILK")
	todo := columnByStatus(t, cols, StatusTodo)
	if len(todo.Tasks) != 1 || todo.Tasks[0].ID != "1" {
		t.Fatalf("expected case-insensitive title match, got %+v", todo.Tasks)
	}
}

func TestProjectSearchMatchesDescription(t *testing.T) {
	cols := Project(boardTasks(), FilterAll, "cut the")
	inProgress := columnByStatus(t, cols, StatusInProgress)
	if len(inProgress.Tasks) != 1 || inProgress.Tasks[0].ID != "2" {
		t.Fatalf("expected description match, got %+v", inProgress.Tasks)
	}
	todo := columnByStatus(t, cols, StatusTodo)
	if len(todo.Tasks) != 0 {
		t.Fatalf("task without matching text should be filtered out, got %+v", todo.Tasks)
	}
}

func TestProjectAbsentDescriptionNeverMatches(t *testing.T) {
	cols := Project([]Task{{ID: "1", Title: "Errand", Status: StatusTodo}}, FilterAll, "milk")
	todo := columnByStatus(t, cols, StatusTodo)
	if len(todo.Tasks) != 0 {
		t.Fatalf("expected no match against absent description, got %+v", todo.Tasks)
	}
}

func TestProjectPreservesInputOrder(t *testing.T) {
	tasks := []Task{
		{ID: "new", Title: "a", Status: StatusTodo},
		{ID: "mid", Title: "b", Status: StatusTodo},
		{ID: "old", Title: "c", Status: StatusTodo},
	}
	cols := Project(tasks, FilterAll, "")
	todo := columnByStatus(t, cols, StatusTodo)
	if todo.Tasks[0].ID != "new" || todo.Tasks[1].ID != "mid" || todo.Tasks[2].ID != "old" {
		t.Fatalf("expected input order preserved, got %+v", todo.Tasks)
	}
}

func TestProjectIsPureAndDeterministic(t *testing.T) {
	tasks := boardTasks()
	snapshot := make([]Task, len(tasks))
	copy(snapshot, tasks)

	first := Project(tasks, FilterAll, "e")
	second := Project(tasks, FilterAll, "e")

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different outputs:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(tasks, snapshot) {
		t.Fatal("Project mutated its input")
	}
}

func TestProjectUnknownFilterYieldsNoColumns(t *testing.T) {
	if cols := Project(boardTasks(), Filter("bogus"), ""); len(cols) != 0 {
		t.Fatalf("expected no columns, got %+v", cols)
	}
}
