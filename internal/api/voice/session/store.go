package session

import (
	"sync"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/sirupsen/logrus"
)

// DefaultIdleTimeout is used when no timeout is configured.
const DefaultIdleTimeout = 30 * time.Minute

// Stats is the snapshot returned by Store.Stats.
type Stats struct {
	TotalSessions  int `json:"total_sessions"`
	ActiveSessions int `json:"active_sessions"`
	TotalCommands  int `json:"total_commands"`
}

type slot struct {
	mu      sync.Mutex
	session *entity.VoiceSession
}

// Store owns every live voice session. Sessions are created lazily on first
// reference, mutated only through store accessors and removed only by the
// idle-expiry sweep. Mutation of a given session is serialized by a
// per-session lock, so two concurrent utterances on the same session id
// cannot interleave a read-modify-write of the flow state or command log.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot

	defaultLanguage string
	idleTimeout     time.Duration
	log             *logrus.Logger
}

func NewStore(defaultLanguage string, idleTimeout time.Duration, log *logrus.Logger) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		slots:           make(map[string]*slot),
		defaultLanguage: defaultLanguage,
		idleTimeout:     idleTimeout,
		log:             log,
	}
}

// GetOrCreate returns a snapshot of the session, creating it when the id is
// unseen. Concurrent callers with the same unseen id get exactly one session.
func (s *Store) GetOrCreate(sessionID, userID, language string) entity.VoiceSession {
	s.mu.Lock()
	sl, ok := s.slots[sessionID]
	if !ok {
		if userID == "" {
			userID = entity.AnonymousUserID
		}
		if language == "" {
			language = s.defaultLanguage
		}
		now := time.Now()
		sl = &slot{session: &entity.VoiceSession{
			ID:           sessionID,
			UserID:       userID,
			Language:     language,
			Context:      entity.ContextGeneral,
			CreatedAt:    now,
			LastActivity: now,
		}}
		s.slots[sessionID] = sl
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"user_id":    userID,
			"language":   language,
		}).Debug("Created voice session")
	}
	s.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	return snapshot(sl.session)
}

// Get returns a snapshot of an existing session.
func (s *Store) Get(sessionID string) (entity.VoiceSession, bool) {
	s.mu.RLock()
	sl, ok := s.slots[sessionID]
	s.mu.RUnlock()
	if !ok {
		return entity.VoiceSession{}, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return snapshot(sl.session), true
}

// Update runs fn against the live session under its per-session lock and
// stamps LastActivity. Returns false when the session does not exist.
func (s *Store) Update(sessionID string, fn func(*entity.VoiceSession)) bool {
	s.mu.RLock()
	sl, ok := s.slots[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	fn(sl.session)
	sl.session.LastActivity = time.Now()
	return true
}

// Append adds a command to the session log in arrival order.
func (s *Store) Append(sessionID string, cmd entity.VoiceCommand) bool {
	return s.Update(sessionID, func(sess *entity.VoiceSession) {
		sess.Commands = append(sess.Commands, cmd)
	})
}

// ExpireIdle removes every session whose last activity predates now minus
// maxIdle. A non-positive maxIdle falls back to the configured timeout.
// This is the only deletion path; in-flight updates on a removed session
// finish against the orphaned record and are never interrupted.
func (s *Store) ExpireIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		maxIdle = s.idleTimeout
	}
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var expired []string
	for id, sl := range s.slots {
		sl.mu.Lock()
		idle := sl.session.LastActivity.Before(cutoff)
		sl.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(s.slots, id)
		}
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		s.log.WithFields(logrus.Fields{
			"expired": len(expired),
		}).Info("Expired idle voice sessions")
	}
	return len(expired)
}

// Stats counts sessions and commands. A session is active when it saw
// activity within the configured idle timeout.
func (s *Store) Stats() Stats {
	cutoff := time.Now().Add(-s.idleTimeout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalSessions: len(s.slots)}
	for _, sl := range s.slots {
		sl.mu.Lock()
		if !sl.session.LastActivity.Before(cutoff) {
			stats.ActiveSessions++
		}
		stats.TotalCommands += len(sl.session.Commands)
		sl.mu.Unlock()
	}
	return stats
}

// snapshot deep-copies the mutable parts so callers never share memory with
// the store-owned record.
func snapshot(sess *entity.VoiceSession) entity.VoiceSession {
	out := *sess
	if len(sess.Commands) > 0 {
		out.Commands = make([]entity.VoiceCommand, len(sess.Commands))
		copy(out.Commands, sess.Commands)
	}
	if len(sess.Flow.Data) > 0 {
		data := make(map[string]string, len(sess.Flow.Data))
		for k, v := range sess.Flow.Data {
			data[k] = v
		}
		out.Flow.Data = data
	}
	return out
}
