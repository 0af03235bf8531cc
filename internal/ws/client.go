package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/router"
)

const (
	readLimit    = 1024 * 64
	readWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 256
)

// Client is one live socket for one authenticated user. It satisfies
// registry.Sink; inbound frames are dispatched sequentially so per-sender
// ordering holds.
type Client struct {
	ws      *websocket.Conn
	userID  string
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	router  *router.Router
}

func NewClient(conn *websocket.Conn, userID string, r *router.Router, perSec int) *Client {
	return &Client{
		ws:      conn,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
		router:  r,
	}
}

func (c *Client) UserID() string { return c.userID }

// Send enqueues a frame without blocking. A full buffer or a dead socket
// drops the frame; a slow reader never stalls the pushing goroutine.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump consumes inbound frames until the socket dies. onClose runs
// after the socket is unregistered.
func (c *Client) readPump(ctx context.Context, reg *registry.Registry, onClose func()) {
	defer func() {
		reg.Unregister(c)
		close(c.done)
		_ = c.ws.Close()
		if onClose != nil {
			onClose()
		}
	}()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		c.router.Dispatch(ctx, c.userID, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
