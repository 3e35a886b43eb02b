package chathub

import (
	"context"
	"time"

	"regimath/backend/internal/config"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ID       string
	Identity session.Identity
	Conn     *websocket.Conn
	Hub      *ManagerService
	Send     chan []byte
}

func NewWebSocketClient(identity session.Identity, conn *websocket.Conn, hub *ManagerService) *WebSocketClient {
	return &WebSocketClient{
		ID:       uuid.NewString(),
		Identity: identity,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, config.SendBufferSize),
	}
}

func (c *WebSocketClient) GetID() string                 { return c.ID }
func (c *WebSocketClient) GetIdentity() session.Identity { return c.Identity }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }

// Run starts the pumps. The client must already be registered with the hub.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump feeds inbound frames to the hub. Any read error, including an
// abrupt network drop, ends the loop and unregisters the client.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Leaving(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	l := logger.L().With().
		Str("client_id", c.ID).
		Str(logger.FieldUserID, c.Identity.ID).
		Logger()
	base := logger.WithLogger(context.Background(), l)

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.Warn().Err(err).Msg("websocket read error")
			}
			break
		}

		ctx, cancel := context.WithTimeout(base, config.EventTimeout)
		c.Hub.HandleInbound(ctx, c, message)
		cancel()
	}
}

// writePump writes queued frames to the socket, one frame per event, and
// keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
