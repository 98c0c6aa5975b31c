package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/middleware"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventLookup loads the event a client subscribes to
type EventLookup interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

// Handler upgrades HTTP requests to live subscriptions
type Handler struct {
	hub    *Hub
	events EventLookup
	log    *logrus.Entry
}

func NewHandler(hub *Hub, events EventLookup, log *logrus.Entry) *Handler {
	return &Handler{hub: hub, events: events, log: log}
}

// HandleEventConnection subscribes to availability updates for one approved
// event and immediately sends its current availability.
func (h *Handler) HandleEventConnection(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	event, err := h.events.GetByID(r.Context(), eventID)
	if err != nil || !event.IsApproved {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "event not found"})
		return
	}

	h.serve(w, r, models.EventRoom(event.ID), models.Availability(event))
}

// HandleUpdatesConnection subscribes to the global feed
func (h *Handler) HandleUpdatesConnection(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, models.GlobalRoom, nil)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, room string, initial *models.LiveMessage) {
	var userID string
	if user := middleware.CurrentUser(r.Context()); user != nil {
		userID = user.ID
	}

	ctx, span := middleware.StartSpan(r.Context(), "Live.Connect",
		attribute.String("live.room", room),
		attribute.String("user.id", userID),
	)
	defer span.End()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Failed to upgrade WebSocket")
		middleware.AddSpanError(ctx, err)
		return
	}

	client := newClient(h.hub, conn, models.NewLiveSession(room, userID))
	client.send <- mustEncode(&models.LiveMessage{
		Type:   models.LiveJoin,
		Data:   map[string]any{"session_id": client.ID, "room": room},
		SentAt: time.Now(),
	})
	if initial != nil {
		client.send <- mustEncode(initial)
	}

	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.log.WithFields(logrus.Fields{"session": client.ID, "room": room, "user": userID}).Info("Live client connected")
}

func mustEncode(msg *models.LiveMessage) []byte {
	payload, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return payload
}
