package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/middleware"
	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler serves notification endpoints
type Handler struct {
	svc      *Service
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(svc *Service, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				// Allow all in development
				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// List returns the account's recent notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.svc.List(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"notifications": notifications})
}

// UnreadCount returns the count of unread notifications
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	count, err := h.svc.GetUnreadCount(r.Context(), accountID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"unread_count": count})
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid notification id")
		return
	}

	if err := h.svc.MarkAsRead(r.Context(), id, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Notification not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"read": true})
}

// MarkAllRead marks every unread notification as read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.MarkAllAsRead(r.Context(), accountID); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"read": true})
}

// WebSocket upgrades the connection for realtime notification delivery
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Connection{
		AccountID: accountID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

// wsReader drains the connection so pings are answered and closes are seen.
// Clients don't send anything meaningful on this socket.
func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("account_id", client.AccountID.String()).Msg("WebSocket read error")
			}
			break
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping for heartbeat
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
