package api

import (
	"context"

	"taskboard-api/domain"
)

// TaskService abstracts the task lifecycle operations for handlers.
type TaskService interface {
	List(ctx context.Context, ownerID string) ([]domain.Task, error)
	Create(ctx context.Context, ownerID string, draft domain.NewTask) (domain.Task, error)
	Update(ctx context.Context, ownerID, id string, upd domain.TaskUpdate) (domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// CredentialManager changes a user's password on the external identity
// system. The service never reads or stores credentials itself.
type CredentialManager interface {
	UpdatePassword(ctx context.Context, userID, newPassword string) error
}
