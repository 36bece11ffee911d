package credentials

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	username string
	expires  time.Time
}

// Sessions maps bearer tokens to usernames. Tokens live in memory only.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]session
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{ttl: ttl, now: time.Now, tokens: make(map[string]session)}
}

// Issue starts a session and returns its token.
func (s *Sessions) Issue(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = session{username: username, expires: s.now().Add(s.ttl)}
	return token
}

// Lookup returns the user behind a live token. Expired tokens are dropped.
func (s *Sessions) Lookup(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	if !s.now().Before(sess.expires) {
		delete(s.tokens, token)
		return "", false
	}
	return sess.username, true
}

// Logout ends a session.
func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// LogoutUser ends every session of a user except keep.
func (s *Sessions) LogoutUser(username, keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.tokens {
		if sess.username == username && token != keep {
			delete(s.tokens, token)
		}
	}
}
