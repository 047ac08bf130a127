package cajaclient

import (
	"sync"

	"micaja/internal/dto"
)

// Session holds the operator's tokens between Login and Logout.
// Safe for concurrent use; one Session is shared by every component of a
// register.
type Session struct {
	mu       sync.RWMutex
	access   string
	refresh  string
	operator *dto.UsuarioResponse
}

func NewSession() *Session { return &Session{} }

func (s *Session) set(resp *dto.LoginResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = resp.AccessToken
	s.refresh = resp.RefreshToken
	u := resp.User
	s.operator = &u
}

func (s *Session) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) refreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// LoggedIn reports whether an access token is held.
func (s *Session) LoggedIn() bool { return s.token() != "" }

// Operator is the logged-in user, nil after Logout.
func (s *Session) Operator() *dto.UsuarioResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.operator == nil {
		return nil
	}
	u := *s.operator
	return &u
}

// Logout drops the tokens. Later calls fail with an unauthorized TransportError.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.operator = "", "", nil
}
