package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// IConn is the subset of the websocket connection the channel uses.
// *websocket.Conn satisfies it; tests substitute a mock.
type IConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// IDialer opens a duplex connection to the push endpoint.
type IDialer interface {
	Dial(ctx context.Context, urlStr string) (IConn, error)
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, urlStr string) (IConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
