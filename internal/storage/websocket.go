package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotReadable is returned by providers that cannot read back what they wrote.
var ErrNotReadable = errors.New("destination is write-only")

// WebSocketProvider streams output to a ws:// or wss:// endpoint as binary
// messages, one message per Write. The receiving side sees EOF as a normal
// close frame.
type WebSocketProvider struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewWebSocketProvider creates a provider. header is sent with every dial,
// e.g. an authorization key.
func NewWebSocketProvider(header http.Header) *WebSocketProvider {
	return &WebSocketProvider{
		dialer: websocket.DefaultDialer,
		header: header,
	}
}

func (p *WebSocketProvider) Create(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	header := p.header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if contentType != "" {
		header.Set("X-Content-Type", contentType)
	}

	conn, _, err := p.dialer.DialContext(ctx, key, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", key, err)
	}
	slog.Debug("WebSocket stream connected", "url", key)
	return &wsWriter{conn: conn, url: key}, nil
}

func (p *WebSocketProvider) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrNotReadable
}

func (p *WebSocketProvider) URL(key string) string {
	return key
}

type wsWriter struct {
	conn   *websocket.Conn
	url    string
	closed bool
}

func (w *wsWriter) Write(p []byte) (n int, err error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
	cerr := w.conn.Close()
	if werr != nil {
		return werr
	}
	if cerr == nil {
		slog.Debug("WebSocket stream completed", "url", w.url)
	}
	return cerr
}
