package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	bridge "vintageshock/bridge"
)

const writeWait = 10 * time.Second

type shimMessage struct {
	Ver           int     `json:"ver,omitempty"`
	Type          string  `json:"type"`
	Damage        float64 `json:"damage"`
	CurrentHealth float64 `json:"currentHealth"`
	MaxHealth     float64 `json:"maxHealth"`
	SentAt        int64   `json:"sentAt,omitempty"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// session serializes writes to one shim connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Handler coordinates a websocket session for a game-side shim.
type Handler struct {
	hub    *bridge.Hub
	logger *log.Logger
}

// NewHandler constructs a websocket session handler for the given hub.
func NewHandler(hub *bridge.Hub, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

// Serve reads observation and heartbeat messages until the connection drops.
// Malformed messages are discarded; the stream keeps going.
func (h *Handler) Serve(shimID string, conn *websocket.Conn) {
	if h == nil || h.hub == nil || conn == nil {
		return
	}
	sess := &session{conn: conn}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg shimMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", shimID, err)
			continue
		}

		now := time.Now()
		switch msg.Type {
		case "damage":
			h.hub.Observe(bridge.DamageObservation{
				Role:          bridge.RoleSelf,
				Damage:        msg.Damage,
				CurrentHealth: msg.CurrentHealth,
				MaxHealth:     msg.MaxHealth,
				At:            now,
			})
		case "hurt-other":
			h.hub.Observe(bridge.DamageObservation{
				Role:   bridge.RoleOther,
				Damage: msg.Damage,
				At:     now,
			})
		case "heartbeat":
			ack := heartbeatMessage{
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
			}
			data, err := json.Marshal(ack)
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", shimID, err)
				continue
			}
			if err := sess.write(data); err != nil {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, shimID)
		}
	}
}
