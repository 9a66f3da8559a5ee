package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeAppointmentChanged  MessageType = "appointment.changed"
	TypeTokenMinted         MessageType = "token.minted"
	TypeTokenRevoked        MessageType = "token.revoked"
	TypeSyncCompleted       MessageType = "sync.completed"
	TypeSyncError           MessageType = "sync.error"
	TypeSystemStatusChanged MessageType = "system.status_changed"
	TypeNotification        MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck MessageType = "subscribe.ack"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// AppointmentChangedPayload is the payload for appointment.changed events.
type AppointmentChangedPayload struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	Status        string `json:"status"`
	Change        string `json:"change"` // "created", "updated" or "deleted"
}

// TokenPayload is the payload for token.minted and token.revoked events.
type TokenPayload struct {
	TokenID  string `json:"token_id"`
	StaffID  string `json:"staff_id"`
	FeedKind string `json:"feed_kind"`
}

// SyncCompletedPayload is the payload for sync.completed events.
type SyncCompletedPayload struct {
	ConnectionID  string `json:"connection_id"`
	StaffID       string `json:"staff_id"`
	Status        string `json:"status"`
	EventsCreated int    `json:"events_created"`
	EventsUpdated int    `json:"events_updated"`
	EventsDeleted int    `json:"events_deleted"`
	ErrorCount    int    `json:"error_count"`
}

// SyncErrorPayload is the payload for sync.error events.
type SyncErrorPayload struct {
	ConnectionID string `json:"connection_id"`
	StaffID      string `json:"staff_id"`
	Error        string `json:"error"`
	Message      string `json:"message"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string              `json:"level"` // info, warning, error, success
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Action      *NotificationAction `json:"action,omitempty"`
	Dismissible bool                `json:"dismissible"`
}

// NotificationAction is an optional action button for notifications.
type NotificationAction struct {
	Type  string `json:"type"` // "link"
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
