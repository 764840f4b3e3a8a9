// Package ws is the real-time notification channel: an authenticated,
// per-account websocket with in-memory presence tracking and best-effort
// delivery. The presence registry is process-local; a deployment running
// multiple server processes needs an external fan-out layer to route pushes
// across processes.
package ws

import (
	"sync"

	"tutorlink_backend/internal/logger"
)

// PresenceRegistry maps an account id to its live connection. One slot per
// account: a second connection from the same account evicts the first from
// routing, even though the first socket stays open until it disconnects.
type PresenceRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		clients: make(map[string]*Client),
	}
}

// Register stores the connection for the account. Last connection wins.
func (p *PresenceRegistry) Register(accountID string, client *Client) {
	p.mu.Lock()
	p.clients[accountID] = client
	total := len(p.clients)
	p.mu.Unlock()

	logger.Info("client registered", "user_id", accountID, "total", total)
}

// Unregister removes the entry only when the disconnecting client is the
// one on record, so a stale disconnect never evicts a newer registration.
func (p *PresenceRegistry) Unregister(accountID string, client *Client) {
	p.mu.Lock()
	if current, ok := p.clients[accountID]; ok && current == client {
		delete(p.clients, accountID)
		logger.Info("client unregistered", "user_id", accountID, "total", len(p.clients))
	}
	p.mu.Unlock()
}

func (p *PresenceRegistry) Lookup(accountID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[accountID]
	return client, ok
}

// ConnectedIDs returns a snapshot of every account with a live connection.
func (p *PresenceRegistry) ConnectedIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	return ids
}

func (p *PresenceRegistry) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
