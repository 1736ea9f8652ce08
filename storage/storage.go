package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

// Storage persists tasks in an Azure table. The owner id is the partition
// key and the task id the row key, so every operation touches exactly one
// partition.
type Storage struct {
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: svc.NewClient(tasksTable)}, nil
}

type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Description   string `json:"Description"`
	Priority      string `json:"Priority"`
	Status        string `json:"Status"`
	Deadline      string `json:"Deadline"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

func encodeTask(t domain.Task) taskEntity {
	ent := taskEntity{
		Entity:        aztables.Entity{PartitionKey: t.OwnerID, RowKey: t.ID},
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.UnixNano(),
		CreatedAtType: "Edm.Int64",
	}
	if t.Deadline != nil {
		ent.Deadline = t.Deadline.UTC().Format(time.RFC3339Nano)
	}
	return ent
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:          ent.RowKey,
		OwnerID:     ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Status:      domain.Status(ent.Status),
		CreatedAt:   time.Unix(0, ent.CreatedAt).UTC(),
	}
	if ent.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339Nano, ent.Deadline)
		if err != nil {
			return domain.Task{}, fmt.Errorf("task %s has malformed deadline: %w", ent.RowKey, err)
		}
		t.Deadline = &deadline
	}
	return t, nil
}

// GetTask looks a task up by id across all partitions. It returns (nil, nil)
// when no record exists.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	filter := "RowKey eq " + quoteFilterValue(id)
	top := int32(1)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, e := range resp.Entities {
			t, err := decodeTask(e)
			if err != nil {
				return nil, err
			}
			return &t, nil
		}
	}
	return nil, nil
}

// ListTasks retrieves all tasks for the provided owner, newest first.
func (s *Storage) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	filter := "PartitionKey eq " + quoteFilterValue(ownerID)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, e := range resp.Entities {
			t, err := decodeTask(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

// InsertTask adds a new task record.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(encodeTask(t))
	if err != nil {
		return err
	}
	if _, err := s.taskTable.AddEntity(ctx, data, nil); err != nil {
		return classify(err)
	}
	return nil
}

// SaveTask replaces the stored record with t. Last write wins; there is no
// version check.
func (s *Storage) SaveTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(encodeTask(t))
	if err != nil {
		return err
	}
	if _, err := s.taskTable.UpsertEntity(ctx, data, nil); err != nil {
		return classify(err)
	}
	return nil
}

// DeleteTask removes the record permanently. Deleting an id that is already
// gone reports ErrNotFound so callers can treat it as benign.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, ownerID, id, nil); err != nil {
		if hasStatus(err, 404) {
			return domain.ErrNotFound
		}
		return classify(err)
	}
	return nil
}

// quoteFilterValue wraps a client-supplied value as an OData string literal.
// Embedded single quotes are doubled so the value can never terminate the
// literal and rewrite the filter.
func quoteFilterValue(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// classify wraps transient table-service failures so callers can detect a
// retryable outage without depending on SDK error types.
func classify(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return err
}

func hasStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}
