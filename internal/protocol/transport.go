package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Dial opens a transport to address. Supported forms are "host:port" and
// "tcp://host:port" for raw sockets and "ws://" or "wss://" URLs for
// websocket transports.
func Dial(ctx context.Context, address string, timeout time.Duration) (io.ReadWriteCloser, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("protocol: dial: empty address")
	}
	if !strings.Contains(address, "://") {
		return dialTCP(ctx, address, timeout)
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("protocol: dial %q: %w", address, err)
	}
	switch u.Scheme {
	case "tcp":
		return dialTCP(ctx, u.Host, timeout)
	case "ws", "wss":
		return DialWebSocket(ctx, address, timeout)
	default:
		return nil, fmt.Errorf("protocol: dial %q: unsupported scheme %q", address, u.Scheme)
	}
}

func dialTCP(ctx context.Context, hostport string, timeout time.Duration) (io.ReadWriteCloser, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return nil, fmt.Errorf("protocol: dial tcp %s: %w", hostport, err)
	}
	return conn, nil
}

// DialWebSocket opens a websocket transport. Each frame is written as one
// binary message; reads treat consecutive messages as one byte stream.
func DialWebSocket(ctx context.Context, address string, timeout time.Duration) (io.ReadWriteCloser, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, address, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("protocol: dial websocket %s: %w", address, err)
	}
	return WrapWebSocket(conn), nil
}

// WrapWebSocket adapts an established websocket connection to a byte stream.
func WrapWebSocket(conn *websocket.Conn) io.ReadWriteCloser {
	return &wsStream{conn: conn}
}

type wsStream struct {
	conn   *websocket.Conn
	reader io.Reader
}

func (w *wsStream) Read(p []byte) (int, error) {
	for {
		if w.reader == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			w.reader = r
		}
		n, err := w.reader.Read(p)
		if errors.Is(err, io.EOF) {
			w.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *wsStream) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsStream) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return w.conn.Close()
}
