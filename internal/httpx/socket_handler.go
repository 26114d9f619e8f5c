package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/venues"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber is the realtime hub as the socket handler uses it.
type Subscriber interface {
	Subscribe(venueID string) (<-chan realtime.Batch, func())
}

type SocketHandler struct {
	Hub      Subscriber
	Venues   venues.Directory
	Log      *zap.Logger
	Upgrader websocket.Upgrader
}

func NewSocketHandler(hub Subscriber, dir venues.Directory, log *zap.Logger) *SocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SocketHandler{
		Hub:    hub,
		Venues: dir,
		Log:    log,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *SocketHandler) Register(r chi.Router) {
	r.Get("/venues/{venueID}/notifications", h.handleNotifications)
}

// handleNotifications streams the venue's batches to its owner. Every frame
// is a JSON array of payloads.
func (h *SocketHandler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")
	p := PrincipalFrom(r.Context())

	v, err := h.Venues.Get(r.Context(), venueID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "venue not found"})
		return
	}
	if !v.OwnedBy(p) {
		h.Log.Warn("dashboard subscribe denied", zap.String("venue_id", venueID), zap.String("actor_id", p.ID))
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	batches, unsubscribe := h.Hub.Subscribe(venueID)
	defer unsubscribe()
	log := h.Log.With(zap.String("venue_id", venueID), zap.String("actor_id", p.ID))
	log.Info("dashboard connected")

	// Reader: only pongs and close frames matter.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			log.Info("dashboard disconnected")
			return
		case b, ok := <-batches:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(b.Payloads); err != nil {
				log.Warn("dashboard write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
