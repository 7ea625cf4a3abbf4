package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingagent/models"

	"go.uber.org/zap"
)

// TurnFunc applies one turn to a session and returns the new state.
type TurnFunc func(ctx context.Context, sess models.Session) (models.Session, error)

// Manager serializes turns per session: load, apply, save all happen under
// that session's lock. Different sessions proceed in parallel.
type Manager struct {
	store  Store
	locks  *keyedMutex
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		locks:  newKeyedMutex(),
		logger: logger,
		now:    time.Now,
	}
}

// WithSession runs fn on the stored session for id, or on a fresh one when
// the id is unknown, and saves the result. Nothing is saved when fn fails.
func (m *Manager) WithSession(ctx context.Context, id string, fn TurnFunc) (models.Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	sess, err := m.store.Load(ctx, id)
	var notFound *SessionNotFoundError
	switch {
	case errors.As(err, &notFound):
		m.logger.Debug("session: starting new session", zap.String("sessionId", id))
		sess = models.NewSession(id)
	case err != nil:
		return models.Session{}, err
	}

	next, err := fn(ctx, sess)
	if err != nil {
		return models.Session{}, err
	}
	next.ID = id
	next.UpdatedAt = m.now()
	if err := m.store.Save(ctx, next); err != nil {
		return models.Session{}, fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return next, nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(ctx context.Context, id string) (models.Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()
	return m.store.Load(ctx, id)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}
