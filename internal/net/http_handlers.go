package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	bridge "vintageshock/bridge"
	"vintageshock/bridge/internal/net/ws"
)

type HTTPHandlerConfig struct {
	Logger *log.Logger
	// Reload re-reads settings and installs the new snapshot. A nil func
	// disables the /reload endpoint.
	Reload func() error
}

// observationMessage is the wire form of a damage observation, shared by the
// POST endpoint and the websocket stream.
type observationMessage struct {
	Ver           int     `json:"ver,omitempty"`
	Type          string  `json:"type"`
	Damage        float64 `json:"damage"`
	CurrentHealth float64 `json:"currentHealth"`
	MaxHealth     float64 `json:"maxHealth"`
	SentAt        int64   `json:"sentAt,omitempty"`
}

func (m observationMessage) toObservation(receivedAt time.Time) (bridge.DamageObservation, bool) {
	role := bridge.RoleSelf
	switch m.Type {
	case "damage":
	case "hurt-other":
		role = bridge.RoleOther
	default:
		return bridge.DamageObservation{}, false
	}
	return bridge.DamageObservation{
		Role:          role,
		Damage:        m.Damage,
		CurrentHealth: m.CurrentHealth,
		MaxHealth:     m.MaxHealth,
		At:            receivedAt,
	}, true
}

// NewHTTPHandler wires the bridge endpoints: health, diagnostics, explicit
// settings reload, a one-shot observation POST, and the websocket stream for
// shims that hold a connection open.
func NewHTTPHandler(hub *bridge.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string                    `json:"status"`
			ServerTime int64                     `json:"serverTime"`
			Bridge     bridge.DiagnosticsSnapshot `json:"bridge"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Bridge:     hub.Diagnostics(),
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/reload", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Reload == nil {
			nethttp.Error(w, "reload not supported", nethttp.StatusNotImplemented)
			return
		}
		status := "reloaded"
		if err := cfg.Reload(); err != nil {
			// Load failures fall back to defaults inside the reload func;
			// the endpoint only reports that it happened.
			logger.Printf("settings reload failed: %v", err)
			status = "reloaded with defaults"
		}
		writeJSON(w, struct {
			Status string `json:"status"`
		}{Status: status})
	})

	mux.HandleFunc("/observations", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(nethttp.MaxBytesReader(w, r.Body, 1<<16))
		if err != nil {
			nethttp.Error(w, "failed to read body", nethttp.StatusBadRequest)
			return
		}
		var msg observationMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			nethttp.Error(w, "malformed observation", nethttp.StatusBadRequest)
			return
		}
		obs, ok := msg.toObservation(time.Now())
		if !ok {
			nethttp.Error(w, "unknown observation type", nethttp.StatusBadRequest)
			return
		}
		hub.Observe(obs)
		w.WriteHeader(nethttp.StatusAccepted)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	wsHandler := ws.NewHandler(hub, logger)

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		shimID := r.URL.Query().Get("id")
		if shimID == "" {
			shimID = "shim"
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed for %s: %v", shimID, err)
			return
		}
		go wsHandler.Serve(shimID, conn)
	})

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
