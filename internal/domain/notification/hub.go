package notification

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const eventsChannel = "notify:events"

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

type eventEnvelope struct {
	AccountID        string          `json:"account_id"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents a WebSocket connection
type Connection struct {
	AccountID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub fans stored notifications out to connected clients. With Redis
// configured, events reach clients connected to other instances too.
type Hub struct {
	connections map[uuid.UUID]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a notification hub. redisClient may be nil for
// single-instance deployments.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  uuid.NewString(),
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, eventsChannel)
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.AccountID] == nil {
				h.connections[conn.AccountID] = make(map[*Connection]bool)
			}
			h.connections[conn.AccountID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Str("account_id", conn.AccountID.String()).Msg("Account connected to WebSocket")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.AccountID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.AccountID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("account_id", conn.AccountID.String()).Msg("Account disconnected from WebSocket")
		}
	}
}

// Stop shuts the hub down
func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Publish implements Publisher. The notification is delivered to local
// connections and, when Redis is available, relayed to other instances.
func (h *Hub) Publish(accountID uuid.UUID, n *Notification) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "notification:new",
		"data": n,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}

	h.sendLocal(accountID, payload)

	if h.redis != nil {
		envelope, err := json.Marshal(eventEnvelope{
			AccountID:        accountID.String(),
			Payload:          payload,
			SenderInstanceID: h.instanceID,
		})
		if err != nil {
			return
		}
		if err := h.redis.Publish(h.ctx, eventsChannel, envelope).Err(); err != nil {
			log.Error().Err(err).Str("channel", eventsChannel).Msg("Redis publish failed")
		}
	}
}

// runRedisSubscriber listens for events relayed from other instances
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var envelope eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				continue
			}
			if envelope.SenderInstanceID == h.instanceID {
				continue
			}
			accountID, err := uuid.Parse(envelope.AccountID)
			if err != nil {
				continue
			}
			h.sendLocal(accountID, envelope.Payload)
		}
	}
}

// sendLocal delivers to clients connected to THIS instance
func (h *Hub) sendLocal(accountID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.connections[accountID]
	if !ok {
		return
	}

	for conn := range conns {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			// Buffer full, skip this message
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("account_id", accountID.String()).Msg("WebSocket send buffer full")
		}
	}
}
