package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/mediscan/internal/entity"
)

// Session is the per-user chat state: the current document context, the
// last extracted record and a bounded history.
type Session struct {
	ID      string
	History *History

	mu       sync.Mutex
	context  string
	record   *entity.PrescriptionRecord
	lastSeen time.Time
}

func newSession(id string, historyLimit int, now time.Time) *Session {
	return &Session{ID: id, History: NewHistory(historyLimit), lastSeen: now}
}

// SetDocument replaces the document context wholesale and starts a fresh
// conversation about it.
func (s *Session) SetDocument(context string, rec *entity.PrescriptionRecord) {
	s.mu.Lock()
	s.context = context
	s.record = rec
	s.mu.Unlock()
	s.History.Clear()
}

func (s *Session) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

func (s *Session) Record() *entity.PrescriptionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager owns all live sessions.
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	historyLimit int
	now          func() time.Time
	logger       *slog.Logger
}

func NewManager(historyLimit int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
		now:          time.Now,
		logger:       logger,
	}
}

// Get returns the live session with id and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Create starts a new session with a random id.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.historyLimit, m.now())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.logger.Debug("chat.session.created", "session_id", s.ID)
	return s
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Sweep drops sessions idle for longer than ttl and reports how many went.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("chat.session.swept", "evicted", n, "live", len(m.sessions))
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
