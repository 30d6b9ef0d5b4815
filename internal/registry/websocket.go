// internal/registry/websocket.go
package registry

import (
	"context"

	"github.com/coder/websocket"
)

// WebSocketConn adapts a coder/websocket connection to Conn.
type WebSocketConn struct {
	c *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{c: c}
}

// Read returns the next text frame. Binary frames are skipped.
func (w *WebSocketConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageText {
			return data, nil
		}
	}
}

func (w *WebSocketConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *WebSocketConn) Close(code int, reason string) error {
	return w.c.Close(websocket.StatusCode(code), reason)
}

func (w *WebSocketConn) Ping(ctx context.Context) error {
	return w.c.Ping(ctx)
}
