// Package session stores conversation sessions between turns and makes sure
// only one turn per session runs at a time.
package session

import (
	"context"
	"fmt"

	"bookingagent/models"
)

// Store persists sessions by id.
type Store interface {
	Load(ctx context.Context, id string) (models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Delete(ctx context.Context, id string) error
}

// SessionNotFoundError is returned by Load for unknown or expired ids.
type SessionNotFoundError struct {
	Code    string
	Message string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSessionNotFoundError(id string) error {
	return &SessionNotFoundError{
		Code:    "sessionNotFound",
		Message: fmt.Sprintf("no session with id %s", id),
	}
}
