package game

import (
	"crypto/rand"
	"sync"

	"codearena/internal/catalog"
	"codearena/internal/exec"
)

// Room codes skip ambiguous characters (0/O, 1/I).
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Registry tracks live sessions by room code. Creation is idempotent:
// concurrent joins to the same code resolve to one session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     Config
	catalog *catalog.Catalog
	engine  exec.Engine
}

// NewRegistry creates an empty registry sharing one catalog and engine
// across all sessions.
func NewRegistry(cfg Config, cat *catalog.Catalog, engine exec.Engine) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		catalog:  cat,
		engine:   engine,
	}
}

// GetOrCreate returns the session for the room code, creating it on
// first use.
func (r *Registry) GetOrCreate(room string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[room]; ok {
		return s
	}
	s := NewSession(room, r.cfg, r.catalog, r.engine)
	r.sessions[room] = s
	return s
}

// Join adds a player to the room's session, creating the session on
// first use. Lookup, creation and the join itself happen under the
// registry lock, so a concurrent cleanup can neither orphan the new
// session nor race a second one into the same code. A freshly created
// session is only registered when the join succeeds.
func (r *Registry) Join(room, username string) (*Session, string, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[room]
	if !ok {
		s = NewSession(room, r.cfg, r.catalog, r.engine)
	}
	playerID, events, err := s.Join(username)
	if err != nil {
		return nil, "", nil, err
	}
	r.sessions[room] = s
	return s, playerID, events, nil
}

// Get returns the session for the room code, or nil.
func (r *Registry) Get(room string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[room]
}

// Remove drops the session for the room code.
func (r *Registry) Remove(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, room)
}

// RemoveIfEmpty drops the session if its roster is empty. The roster
// check runs under the registry lock, so a join that lands between the
// caller's last look and the removal keeps the session alive.
func (r *Registry) RemoveIfEmpty(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[room]
	if !ok {
		return false
	}
	if !s.Empty() {
		return false
	}
	delete(r.sessions, room)
	return true
}

// Counts reports live session and player totals for health reporting.
func (r *Registry) Counts() (sessions, players int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions = len(r.sessions)
	for _, s := range r.sessions {
		s.mu.Lock()
		players += len(s.players)
		s.mu.Unlock()
	}
	return sessions, players
}

// NewRoomCode generates a random unused room code.
func (r *Registry) NewRoomCode() string {
	for {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for i := range buf {
			buf[i] = codeChars[int(buf[i])%len(codeChars)]
		}
		code := string(buf)

		r.mu.RLock()
		_, taken := r.sessions[code]
		r.mu.RUnlock()
		if !taken {
			return code
		}
	}
}
