package browse

import (
	"sync"

	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

// Manager hands out one Browser per user. Browsers live for the process
// lifetime; state is intentionally in-memory, like the UI it replaces.
type Manager struct {
	mu       sync.Mutex
	browsers map[uuid.UUID]*Browser

	sessions SessionManager
	overlay  Overlay
	quota    QuotaGate
	log      *logger.Logger
}

func NewManager(sessions SessionManager, overlay Overlay, quota QuotaGate, log *logger.Logger) *Manager {
	return &Manager{
		browsers: make(map[uuid.UUID]*Browser),
		sessions: sessions,
		overlay:  overlay,
		quota:    quota,
		log:      log,
	}
}

// ForUser returns the user's browser, creating it on first use.
func (m *Manager) ForUser(companyID, userID uuid.UUID) *Browser {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.browsers[userID]; ok {
		return b
	}
	b := NewBrowser(m.sessions, m.overlay, m.quota, m.log, companyID, userID)
	m.browsers[userID] = b
	return b
}
