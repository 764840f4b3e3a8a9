package ws

import (
	"encoding/json"
	"time"

	"tutorlink_backend/internal/logger"
	"tutorlink_backend/internal/models"
)

// Router resolves live connections through the presence registry and pushes
// notification events. An offline recipient is never an error: the
// persisted row stays retrievable through the listing query.
type Router struct {
	registry *PresenceRegistry
}

func NewRouter(registry *PresenceRegistry) *Router {
	return &Router{registry: registry}
}

type notificationPayload struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      json.RawMessage         `json:"data,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

func buildPayload(n *models.Notification) notificationPayload {
	return notificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      json.RawMessage(n.Data),
		CreatedAt: n.CreatedAt,
	}
}

// DeliverToUser pushes a newNotification event to the account's live
// connection, or silently does nothing when the account is offline.
func (r *Router) DeliverToUser(accountID string, n *models.Notification) {
	client, ok := r.registry.Lookup(accountID)
	if !ok {
		logger.Debug("user not connected, skipping push", "user_id", accountID)
		return
	}

	client.trySend(Event{Event: EventNewNotification, Data: buildPayload(n)})
	logger.Info("notification pushed", "user_id", accountID, "title", n.Title)
}

// DeliverToUsers delivers to each account independently. Partial delivery
// is expected and not reported.
func (r *Router) DeliverToUsers(accountIDs []string, n *models.Notification) {
	for _, id := range accountIDs {
		r.DeliverToUser(id, n)
	}
}

// Broadcast pushes to every connected account. Used for platform-wide
// announcements only, never for per-user domain events.
func (r *Router) Broadcast(n *models.Notification) {
	payload := buildPayload(n)
	for _, id := range r.registry.ConnectedIDs() {
		if client, ok := r.registry.Lookup(id); ok {
			client.trySend(Event{Event: EventBroadcastNotification, Data: payload})
		}
	}
	logger.Info("broadcast notification sent", "title", n.Title, "connected", r.registry.Count())
}

// PushUnreadCount is a best-effort unreadCountUpdate push.
func (r *Router) PushUnreadCount(accountID string, count int64) {
	client, ok := r.registry.Lookup(accountID)
	if !ok {
		return
	}
	client.trySend(Event{Event: EventUnreadCountUpdate, Data: unreadCountPayload{Count: count}})
}
