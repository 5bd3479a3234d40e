package application

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rotabot/internal/domain/entities"
	"rotabot/pkg/clock"
)

// SessionKind tells which dialogue a session belongs to.
type SessionKind string

const (
	SessionParticipate SessionKind = "participate"
	SessionCancel      SessionKind = "cancel"
	SessionAdmin       SessionKind = "admin"
)

// Session is the suspended state of one actor's dialogue. Steps on the same
// session are serialized by its mutex.
type Session struct {
	mu sync.Mutex

	ID    string
	Kind  SessionKind
	Actor entities.Actor

	State         FlowState
	Date          time.Time
	EventID       int64
	Outcome       Outcome
	Participation *entities.Participation

	lastActive atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// LastActive is the time of the last step taken on the session.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Focus remembers the event an admin dialogue is working on.
func (s *Session) Focus(eventID int64) {
	s.mu.Lock()
	s.EventID = eventID
	s.mu.Unlock()
}

// FocusedEvent returns the event remembered by Focus, or 0.
func (s *Session) FocusedEvent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EventID
}

// Snapshot returns the current state and outcome.
func (s *Session) Snapshot() (FlowState, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State, s.Outcome
}

// SessionStore keeps one live session per actor in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	clock    clock.Clock
}

func NewSessionStore(clk clock.Clock) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		clock:    clk,
	}
}

// ActorKey identifies an actor's session slot.
func ActorKey(a entities.Actor) string {
	if a.ID != "" {
		return a.ID
	}
	return a.Handle
}

// Begin starts a fresh Idle session for actor, replacing any previous one.
func (st *SessionStore) Begin(actor entities.Actor, kind SessionKind) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		Kind:  kind,
		Actor: actor,
		State: StateIdle,
	}
	s.touch(st.clock.Now())

	st.mu.Lock()
	st.sessions[ActorKey(actor)] = s
	st.mu.Unlock()
	return s
}

// Get returns the live session of the actor with the given key.
func (st *SessionStore) Get(key string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[key]
	return s, ok
}

// End drops the actor's session.
func (st *SessionStore) End(key string) {
	st.mu.Lock()
	delete(st.sessions, key)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Reap drops sessions idle for longer than maxIdle and returns how many.
func (st *SessionStore) Reap(maxIdle time.Duration) int {
	cutoff := st.clock.Now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for key, s := range st.sessions {
		if s.LastActive().Before(cutoff) {
			delete(st.sessions, key)
			n++
		}
	}
	return n
}
