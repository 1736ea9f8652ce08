package domain

import "strings"

// Filter is a client-selected view mode. It determines the column set shown,
// independent of which tasks currently exist.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterInProgress Filter = "in_progress"
	FilterTrash      Filter = "trash"
)

// Valid reports whether f is one of the enumerated filters.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCompleted, FilterInProgress, FilterTrash:
		return true
	}
	return false
}

// Column is a view-only grouping of tasks sharing a status. Columns are
// produced by Project and never stored.
type Column struct {
	Status Status `json:"status"`
	Title  string `json:"title"`
	Tasks  []Task `json:"tasks"`
}

var columnTitles = map[Status]string{
	StatusTodo:       "To Do",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusTrash:      "Trash",
}

// Project maps a task collection plus a filter and search term to the columns
// to render. It is pure: no I/O, no mutation of tasks, and identical inputs
// always yield identical output. Tasks keep the order the input provides;
// callers supply newest-first.
func Project(tasks []Task, filter Filter, searchTerm string) []Column {
	var statuses []Status
	switch filter {
	case FilterAll:
		statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}
	case FilterCompleted:
		statuses = []Status{StatusCompleted}
	case FilterInProgress:
		statuses = []Status{StatusInProgress}
	case FilterTrash:
		statuses = []Status{StatusTrash}
	default:
		return []Column{}
	}

	term := strings.ToLower(searchTerm)
	columns := make([]Column, len(statuses))
	for i, st := range statuses {
		col := Column{Status: st, Title: columnTitles[st], Tasks: []Task{}}
		for _, t := range tasks {
			if t.Status == st && matchesTerm(t, term) {
				col.Tasks = append(col.Tasks, t)
			}
		}
		columns[i] = col
	}
	return columns
}

// matchesTerm reports whether the lowercased term is a substring of the
// task's title or description. An absent description never matches a
// non-empty term; the empty term matches everything.
func matchesTerm(t Task, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), term)
}
