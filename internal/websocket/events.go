package websocket

import (
	"log"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastAppointmentChanged sends an appointment changed event.
func (b *EventBroadcaster) BroadcastAppointmentChanged(appointmentID, staffID, status, change string) {
	payload := AppointmentChangedPayload{
		AppointmentID: appointmentID,
		StaffID:       staffID,
		Status:        status,
		Change:        change,
	}

	msg := NewMessage(TypeAppointmentChanged, payload)
	b.broadcast(msg)
}

// BroadcastTokenMinted sends a token minted event.
func (b *EventBroadcaster) BroadcastTokenMinted(tokenID, staffID, feedKind string) {
	payload := TokenPayload{
		TokenID:  tokenID,
		StaffID:  staffID,
		FeedKind: feedKind,
	}

	msg := NewMessage(TypeTokenMinted, payload)
	b.broadcast(msg)
}

// BroadcastTokenRevoked sends a token revoked event.
func (b *EventBroadcaster) BroadcastTokenRevoked(tokenID, staffID, feedKind string) {
	payload := TokenPayload{
		TokenID:  tokenID,
		StaffID:  staffID,
		FeedKind: feedKind,
	}

	msg := NewMessage(TypeTokenRevoked, payload)
	b.broadcast(msg)
}

// BroadcastSyncCompleted sends a provider sync completed event.
func (b *EventBroadcaster) BroadcastSyncCompleted(connectionID, staffID string, created, updated, deleted, errorCount int) {
	payload := SyncCompletedPayload{
		ConnectionID:  connectionID,
		StaffID:       staffID,
		Status:        "success",
		EventsCreated: created,
		EventsUpdated: updated,
		EventsDeleted: deleted,
		ErrorCount:    errorCount,
	}

	if errorCount > 0 {
		payload.Status = "partial"
	}

	msg := NewMessage(TypeSyncCompleted, payload)
	b.broadcast(msg)
}

// BroadcastSyncError sends a provider sync error event.
func (b *EventBroadcaster) BroadcastSyncError(connectionID, staffID string, err error) {
	payload := SyncErrorPayload{
		ConnectionID: connectionID,
		StaffID:      staffID,
		Error:        "sync_error",
		Message:      err.Error(),
	}

	msg := NewMessage(TypeSyncError, payload)
	b.broadcast(msg)
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	msg := NewMessage(TypeNotification, payload)
	b.broadcast(msg)
}

// BroadcastSystemStatusChanged sends a system status change event.
func (b *EventBroadcaster) BroadcastSystemStatusChanged(status map[string]interface{}) {
	msg := NewMessage(TypeSystemStatusChanged, status)
	b.broadcast(msg)
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
