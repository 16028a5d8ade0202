package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenParser resolves a bearer token to a user identity.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Hub fans out per-user Redis pub/sub events to that user's websocket connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	auth        TokenParser
	cancelFuncs map[string]context.CancelFunc
	logger      zerolog.Logger
}

func NewHub(redisClient *redis.Client, auth TokenParser, logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		auth:        auth,
		cancelFuncs: make(map[string]context.CancelFunc),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers can't set headers on the upgrade request, so the token rides in the query
	userID, err := h.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.registerConnection(userID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], conn)

	// Start pub/sub subscription if this is the first connection for this user
	if len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribeToPubSub(ctx, userID)
	}

	h.logger.Debug().Int("connections", len(h.connections[userID])).Msg("websocket connected")
}

func (h *Hub) unregisterConnection(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[userID]
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	h.logger.Debug().Msg("websocket disconnected")
}

func (h *Hub) subscribeToPubSub(ctx context.Context, userID string) {
	pubsub := h.redisClient.Subscribe(ctx, UserChannel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Msg("websocket write failed")
		}
	}
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
		}
	}
	h.connections = make(map[string][]*websocket.Conn)
	h.cancelFuncs = make(map[string]context.CancelFunc)
}
