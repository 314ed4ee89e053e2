package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/service/models/event"
	"github.com/corray333/backend-labs/grocery/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/grocery/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// locationUpdate is the only message clients may send. It is rebroadcast to
// every subscriber of the order channel.
type locationUpdate struct {
	Type      string `json:"type"`
	Latitude  any    `json:"latitude"`
	Longitude any    `json:"longitude"`
	Timestamp any    `json:"timestamp"`
}

// WSTransport serves the notification websockets.
type WSTransport struct {
	server   *http.Server
	router   *chi.Mux
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSTransport(hub *Hub) *WSTransport {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware("notify-svc"))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowed := viper.GetStringSlice("server.ws.allowed_origins")

	return &WSTransport{
		server: &http.Server{
			Addr:              "0.0.0.0:" + viper.GetString("server.ws.port"),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowed),
		},
	}
}

// originChecker accepts any origin when allowed is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}

		return false
	}
}

func (t *WSTransport) Run() error {
	return t.server.ListenAndServe()
}

func (t *WSTransport) Shutdown(ctx context.Context) error {
	return t.server.Shutdown(ctx)
}

func (t *WSTransport) Handler() http.Handler {
	return t.router
}

// RegisterRoutes registers the websocket endpoints.
func (t *WSTransport) RegisterRoutes() {
	t.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	t.router.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.serve(w, r, event.OrderChannel(chi.URLParam(r, "id")), true)
	})
	t.router.Get("/ws/vendor/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.serve(w, r, event.VendorChannel(chi.URLParam(r, "id")), false)
	})
}

func (t *WSTransport) serve(w http.ResponseWriter, r *http.Request, channel string, acceptLocation bool) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "Websocket upgrade failed", "channel", channel, "error", err)
		return
	}

	sub := t.hub.Subscribe(channel)
	slog.InfoContext(r.Context(), "Websocket subscribed", "channel", channel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.writeLoop(conn, sub)
	}()

	t.readLoop(conn, channel, acceptLocation)

	t.hub.Unsubscribe(sub)
	<-done
	_ = conn.Close()
	slog.InfoContext(r.Context(), "Websocket closed", "channel", channel)
}

// readLoop consumes client messages until the connection fails.
func (t *WSTransport) readLoop(conn *websocket.Conn, channel string, acceptLocation bool) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !acceptLocation {
			continue
		}

		var msg locationUpdate
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != event.TypeLocationUpdate {
			continue
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		t.hub.Publish(channel, payload)
	}
}

// writeLoop forwards hub messages to the connection and keeps it alive with
// pings. It returns when the subscription is closed or a write fails.
func (t *WSTransport) writeLoop(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				_ = conn.Close()

				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				t.hub.Unsubscribe(sub)
				_ = conn.Close()

				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.hub.Unsubscribe(sub)
				_ = conn.Close()

				return
			}
		}
	}
}
