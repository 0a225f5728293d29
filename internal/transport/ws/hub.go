package ws

import (
	"context"
	"encoding/json"
	"sync"

	"surveypulse/internal/log"
	"surveypulse/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgStatsSnapshot MessageType = "stats_snapshot" // sent once on connect
	MsgStatsUpdate   MessageType = "stats_update"   // sent after each stored response
)

// Message is the WebSocket envelope format
type Message struct {
	Type     MessageType     `json:"type"`
	SurveyID string          `json:"surveyId"`
	Payload  json.RawMessage `json:"payload"`
}

// Hub manages stats viewer connections per survey
type Hub struct {
	viewers map[string]map[*Connection]struct{} // surveyID -> connections

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
	done       chan struct{}
}

// Connection represents a WebSocket connection
type Connection struct {
	SurveyID string
	Send     chan []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		viewers:    make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for surveyID, conns := range h.viewers {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.viewers, surveyID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.viewers[conn.SurveyID] == nil {
				h.viewers[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.viewers[conn.SurveyID][conn] = struct{}{}
			h.mu.Unlock()
			log.Debugf("stats viewer connected to survey %s", conn.SurveyID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.viewers[conn.SurveyID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.viewers, conn.SurveyID)
					}
					log.Debugf("stats viewer left survey %s", conn.SurveyID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				log.WithError(err).Warnf("encode %s message for survey %s", msg.Type, msg.SurveyID)
				continue
			}
			h.mu.RLock()
			for conn := range h.viewers[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close disconnects every viewer and stops the hub
func (h *Hub) Close() {
	close(h.done)
}

// ViewerCount returns the number of viewers of a survey
func (h *Hub) ViewerCount(surveyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[surveyID])
}

// BroadcastStats sends a stats update to all viewers of the survey
func (h *Hub) BroadcastStats(surveyID string, stats *model.SurveyStats) {
	msg, err := newMessage(MsgStatsUpdate, surveyID, stats)
	if err != nil {
		log.WithError(err).Warn("encode stats update")
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// PublishStats implements service.StatsPublisher for a single instance
func (h *Hub) PublishStats(_ context.Context, surveyID string, stats *model.SurveyStats) error {
	h.BroadcastStats(surveyID, stats)
	return nil
}

func newMessage(msgType MessageType, surveyID string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, SurveyID: surveyID, Payload: data}, nil
}
