package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	sendBufferSize = 64
	staleAfter     = 5 * time.Minute
)

// Hub fans live messages out to the clients subscribed to each room.
// One goroutine owns registration and broadcast; clients run their own
// read and write pumps.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	mu         sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *logrus.Entry
}

type envelope struct {
	room    string
	payload []byte
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Start() {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-h.done:
				return
			case c := <-h.register:
				h.handleRegister(c)
			case c := <-h.unregister:
				h.handleUnregister(c)
			case env := <-h.broadcast:
				h.handleBroadcast(env)
			}
		}
	}()
	go h.cleanupLoop()

	h.log.Info("Live hub started")
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.Room] == nil {
		h.rooms[c.Room] = make(map[*Client]bool)
	}
	h.rooms[c.Room][c] = true

	h.log.WithFields(logrus.Fields{
		"session": c.ID,
		"room":    c.Room,
		"clients": len(h.rooms[c.Room]),
	}).Debug("Client joined")
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove must be called with mu held
func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.Room]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}

	h.log.WithFields(logrus.Fields{
		"session":   c.ID,
		"room":      c.Room,
		"remaining": len(clients),
	}).Debug("Client left")
}

func (h *Hub) handleBroadcast(env *envelope) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.rooms[env.room] {
		select {
		case c.send <- env.payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		h.log.WithField("session", c.ID).Warn("Client send buffer full, disconnecting")
		h.remove(c)
	}
	h.mu.Unlock()
}

// Publish queues msg for every client in room. It never blocks; messages are
// dropped when the hub is saturated or stopped.
func (h *Hub) Publish(room string, msg *models.LiveMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode live message")
		return
	}

	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- &envelope{room: room, payload: payload}:
	default:
		h.log.WithFields(logrus.Fields{"room": room, "type": msg.Type}).Warn("Live broadcast queue full, dropping message")
	}
}

// Register adds c to its room. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomSize is the number of clients subscribed to room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) cleanupLoop() {
	defer h.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanup(time.Now())
		}
	}
}

// cleanup drops clients that have not answered a ping within staleAfter
func (h *Hub) cleanup(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.rooms {
		for c := range clients {
			if now.Sub(c.LastActive()) > staleAfter {
				h.log.WithField("session", c.ID).Info("Removing inactive client")
				h.remove(c)
			}
		}
	}
}

// Shutdown stops the event loop and closes every client's send channel,
// which makes each write pump send a close frame.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, clients := range h.rooms {
			for c := range clients {
				close(c.send)
			}
		}
		h.rooms = make(map[string]map[*Client]bool)
		h.log.Info("Live hub stopped")
	})
}
