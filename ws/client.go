package ws

import (
	"encoding/json"

	"tutorlink_backend/internal/auth"
	"tutorlink_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// Event names pushed to clients.
const (
	EventSubscribed            = "subscribed"
	EventNewNotification       = "newNotification"
	EventBroadcastNotification = "broadcastNotification"
	EventUnreadCountUpdate     = "unreadCountUpdate"
)

// Event names accepted from clients.
const (
	eventSubscribe      = "subscribe"
	eventGetUnreadCount = "getUnreadCount"
)

// Event is the wire frame, both directions.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type incomingEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UnreadCounter supplies the real unread tally for the getUnreadCount
// socket event.
type UnreadCounter interface {
	GetUnreadCount(userID string) (int64, error)
}

// Client is one authenticated connection. Claims are attached at handshake
// time and are immutable for the connection's lifetime.
type Client struct {
	Claims *auth.Claims
	Conn   *websocket.Conn
	Send   chan Event

	done     chan struct{}
	registry *PresenceRegistry
	unread   UnreadCounter
}

func newClient(claims *auth.Claims, conn *websocket.Conn, registry *PresenceRegistry, unread UnreadCounter) *Client {
	return &Client{
		Claims:   claims,
		Conn:     conn,
		Send:     make(chan Event, 256),
		done:     make(chan struct{}),
		registry: registry,
		unread:   unread,
	}
}

// trySend queues an event without blocking. A full buffer drops the event:
// the notification row is already persisted and stays queryable, so a slow
// or half-disconnected client only loses the live push.
func (c *Client) trySend(evt Event) bool {
	select {
	case c.Send <- evt:
		return true
	default:
		logger.Warn("send buffer full, dropping event", "user_id", c.Claims.UserID, "event", evt.Event)
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.registry.Unregister(c.Claims.UserID, c)
		close(c.done)
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "user_id", c.Claims.UserID, "error", err)
			}
			break
		}

		var evt incomingEvent
		if err := json.Unmarshal(msgBytes, &evt); err != nil {
			logger.Warn("failed to parse client event", "user_id", c.Claims.UserID, "error", err)
			continue
		}

		c.handleEvent(evt)
	}
}

func (c *Client) writePump() {
	for {
		select {
		case evt := <-c.Send:
			if err := c.Conn.WriteJSON(evt); err != nil {
				logger.Warn("websocket write error", "user_id", c.Claims.UserID, "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(evt incomingEvent) {
	switch evt.Event {

	case eventSubscribe:
		c.trySend(Event{
			Event: EventSubscribed,
			Data: subscribedPayload{
				UserID:    c.Claims.UserID,
				Role:      string(c.Claims.Role),
				StudentID: c.Claims.StudentID,
				TeacherID: c.Claims.TeacherID,
			},
		})
		logger.Info("client subscribed", "user_id", c.Claims.UserID, "role", c.Claims.Role)

	case eventGetUnreadCount:
		count, err := c.unread.GetUnreadCount(c.Claims.UserID)
		if err != nil {
			logger.WithError(err).Error("failed to count unread notifications", "user_id", c.Claims.UserID)
			return
		}
		c.trySend(Event{
			Event: EventUnreadCountUpdate,
			Data:  unreadCountPayload{Count: count},
		})

	default:
		logger.Warn("unhandled client event", "user_id", c.Claims.UserID, "event", evt.Event)
	}
}

type subscribedPayload struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	StudentID *uint  `json:"studentId,omitempty"`
	TeacherID *uint  `json:"teacherId,omitempty"`
}

type unreadCountPayload struct {
	Count int64 `json:"count"`
}
