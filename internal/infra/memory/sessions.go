package memory

import (
	"sync"

	"steppetalk/internal/domain"
)

// DefaultMaxTurns is the number of user/assistant exchanges kept per session.
const DefaultMaxTurns = 12

// serial orders chat round-trips on one session; mu guards turns and is
// never held across a provider call.
type session struct {
	serial sync.Mutex
	mu     sync.Mutex
	turns  []domain.Turn
}

func (sess *session) snapshot() []domain.Turn {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]domain.Turn{}, sess.turns...)
}

// SessionStore keeps conversation history in process memory. A chat
// round-trip on one id never blocks another id, nor reads of its own.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	limit    int
}

// NewSessionStore keeps at most 2*maxTurns turns per session.
func NewSessionStore(maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		limit:    maxTurns * 2,
	}
}

// Limit returns the maximum number of turns kept per session.
func (s *SessionStore) Limit() int {
	return s.limit
}

func (s *SessionStore) lookup(id string, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok && create {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// Get returns a copy of the history of id, empty when unknown.
func (s *SessionStore) Get(id string) []domain.Turn {
	sess := s.lookup(id, false)
	if sess == nil {
		return []domain.Turn{}
	}
	return sess.snapshot()
}

// Append adds turns to id, creating the session if needed, and trims it.
func (s *SessionStore) Append(id string, turns ...domain.Turn) {
	sess := s.lookup(id, true)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = trimTurns(append(sess.turns, turns...), s.limit)
}

// Trim keeps only the most recent keep turns of the session.
func (s *SessionStore) Trim(id string, keep int) {
	sess := s.lookup(id, false)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = trimTurns(sess.turns, keep)
}

// Delete forgets id.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Update runs fn with a copy of the session history, then appends whatever
// turns fn returns. Updates of one id run one at a time; Get stays
// available while fn runs. Nothing is stored when fn fails. A session
// deleted while fn runs is recreated with the history fn saw plus the new
// turns.
func (s *SessionStore) Update(id string, fn func(history []domain.Turn) ([]domain.Turn, error)) error {
	sess := s.lookup(id, true)

	sess.serial.Lock()
	defer sess.serial.Unlock()

	added, err := fn(sess.snapshot())
	if err != nil {
		sess.mu.Lock()
		empty := len(sess.turns) == 0
		sess.mu.Unlock()
		if empty {
			s.dropIfEmpty(id, sess)
		}
		return err
	}

	sess.mu.Lock()
	sess.turns = trimTurns(append(sess.turns, added...), s.limit)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) dropIfEmpty(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
}

func trimTurns(turns []domain.Turn, keep int) []domain.Turn {
	if keep < 0 {
		keep = 0
	}
	if len(turns) <= keep {
		return turns
	}
	return append([]domain.Turn(nil), turns[len(turns)-keep:]...)
}
