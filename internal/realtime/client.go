package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Inbound and outbound event names on the class socket.
const (
	EventJoinClass     = "join_class"
	EventLeaveClass    = "leave_class"
	EventClassSnapshot = "class_snapshot"
	EventError         = "error"

	sendBuffer    = 256
	snapshotAfter = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware; the socket carries a JWT
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type classPayload struct {
	ClassID string `json:"classId"`
}

// SnapshotFunc loads the current state of a class for a newly joined viewer.
type SnapshotFunc func(ctx context.Context, classID string) (interface{}, error)

// Client is a single WebSocket connection. It implements Session.
type Client struct {
	id        string
	UserID    string
	hub       *Hub
	snapshot  SnapshotFunc
	conn      *websocket.Conn
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// ServeWs upgrades GET /ws?token=... and runs the client loop until the peer goes away.
func ServeWs(hub *Hub, snapshot SnapshotFunc, logger *zap.Logger, validate func(token string) (userID string, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "token required"})
			return
		}
		userID, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(uuid.New().String(), userID, hub, snapshot, logger)
		client.conn = conn
		logger.Debug("viewer connected", zap.String("session_id", client.id), zap.String("user_id", userID))
		go client.writePump()
		client.readPump()
	}
}

func newClient(id, userID string, hub *Hub, snapshot SnapshotFunc, logger *zap.Logger) *Client {
	return &Client{
		id:       id,
		UserID:   userID,
		hub:      hub,
		snapshot: snapshot,
		send:     make(chan WSMessage, sendBuffer),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// ID returns the session id assigned at upgrade.
func (c *Client) ID() string { return c.id }

// Send queues msg for the write pump without blocking.
func (c *Client) Send(msg WSMessage) error {
	select {
	case <-c.done:
		return ErrSessionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(gin.H{"message": message})
	_ = c.Send(WSMessage{Event: EventError, Data: data})
}

// handle applies one inbound message. Unknown events are ignored; in
// particular client-originated change relays are never rebroadcast, since
// only committed writes may reach viewers.
func (c *Client) handle(msg WSMessage) {
	switch msg.Event {
	case EventJoinClass, EventLeaveClass:
	default:
		return
	}
	var p classPayload
	if err := json.Unmarshal(msg.Data, &p); err != nil || strings.TrimSpace(p.ClassID) == "" {
		c.sendError("classId required")
		return
	}

	if msg.Event == EventLeaveClass {
		c.hub.Unsubscribe(p.ClassID, c)
		return
	}
	if c.snapshot == nil {
		c.hub.Subscribe(p.ClassID, c)
		return
	}
	err := c.hub.SubscribeWithSnapshot(p.ClassID, c, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotAfter)
		defer cancel()
		return c.snapshot(ctx, p.ClassID)
	})
	if err != nil {
		c.logger.Warn("load class snapshot", zap.String("class_id", p.ClassID), zap.Error(err))
		c.sendError("failed to load class")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("viewer read failed", zap.String("session_id", c.id), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
