// Package sse maintains the registry of connected event-stream listeners
// and broadcasts named events to all of them.
package sse

import (
	"encoding/json"
	"sync"
	"time"

	"realtydesk_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Named events pushed over the stream. Listeners refetch selectively based
// on the event name.
const (
	EventTasksChanged         = "tasks:changed"
	EventAlertsChanged        = "alerts:changed"
	EventNudge                = "nudge"
	EventNotificationsChanged = "notifications:changed"
	EventNotificationsRemind  = "notifications:remind"
)

const keepAliveInterval = 30 * time.Second

// Event is one named payload pushed to listeners.
type Event struct {
	Name    string
	Payload any
}

// client is one connected listener.
type client struct {
	events chan Event
}

// Service manages the listener registry and event broadcasting.
type Service struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logger.Logger
}

// New creates an empty SSE service.
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

// ClientCount reports the number of connected listeners.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends a named event to every connected listener. A listener
// with a full buffer misses the event rather than blocking the sender.
func (s *Service) Broadcast(name string, payload any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event := Event{Name: name, Payload: payload}
	for c := range s.clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, event dropped", "event", name)
		}
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.events)
	}
}

// Handler returns the gin handler that upgrades the request to a
// long-lived event stream.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{events: make(chan Event, 32)}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"ok": true})
		c.Writer.Flush()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case <-keepAlive.C:
				// Comment line keeps proxies from closing the stream.
				if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, err := json.Marshal(event.Payload)
				if err != nil {
					s.log.Warn("sse payload marshal failed", "event", event.Name, "error", err)
					continue
				}
				c.SSEvent(event.Name, string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every listener.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		close(c.events)
	}
	s.clients = make(map[*client]struct{})
}
