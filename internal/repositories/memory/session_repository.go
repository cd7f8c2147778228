package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

// SessionRepository stores visitor sessions in process memory.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionRepository constructs an empty session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

// GetSession returns a copy of the session or a not-found error.
func (r *SessionRepository) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	id := strings.TrimSpace(sessionID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, repositories.NewNotFound("session", id)
	}
	return cloneSession(session), nil
}

// UpsertSession stores the session keyed by its ID.
func (r *SessionRepository) UpsertSession(_ context.Context, session domain.Session) (domain.Session, error) {
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return domain.Session{}, repositories.NewConflict("session repository: session id is required")
	}
	session.ID = id
	stored := cloneSession(session)

	r.mu.Lock()
	r.sessions[id] = stored
	r.mu.Unlock()

	return cloneSession(stored), nil
}

// DeleteSession removes the session. Absence is not an error.
func (r *SessionRepository) DeleteSession(_ context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	return nil
}

func cloneSession(session domain.Session) domain.Session {
	dup := session
	if session.User != nil {
		user := *session.User
		dup.User = &user
	}
	if len(session.LikedProductIDs) > 0 {
		dup.LikedProductIDs = append([]string(nil), session.LikedProductIDs...)
	} else {
		dup.LikedProductIDs = nil
	}
	return dup
}
