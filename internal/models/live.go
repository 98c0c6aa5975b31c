package models

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Rooms a live client can subscribe to
const GlobalRoom = "updates"

// EventRoom is the room carrying updates for a single event
func EventRoom(eventID string) string {
	return "event:" + eventID
}

// LiveMessageType names the kind of push notification
type LiveMessageType string

const (
	LiveAvailability      LiveMessageType = "availability"
	LiveEventApproved     LiveMessageType = "event_approved"
	LiveEmbeddingsRebuilt LiveMessageType = "embeddings_rebuilt"
	LiveJoin              LiveMessageType = "join"
	LiveError             LiveMessageType = "error"
)

// LiveMessage is the JSON frame sent to WebSocket clients
type LiveMessage struct {
	Type    LiveMessageType `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	Data    map[string]any  `json:"data,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// Availability builds the message published after a booking change
func Availability(event *Event) *LiveMessage {
	data := map[string]any{
		"confirmed_count": event.ConfirmedCount,
		"is_sold_out":     event.IsSoldOut(),
	}
	if spots, limited := event.AvailableSpots(); limited {
		data["available_spots"] = spots
	}
	return &LiveMessage{Type: LiveAvailability, EventID: event.ID, Data: data, SentAt: time.Now()}
}

// LiveSession describes one connected WebSocket client
type LiveSession struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	UserID      string    `json:"user_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

func NewLiveSession(room, userID string) *LiveSession {
	return &LiveSession{
		ID:          ksuid.New().String(),
		Room:        room,
		UserID:      userID,
		ConnectedAt: time.Now(),
	}
}
