package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/bridgeim/bridgeclient/chatlog"
	"github.com/bridgeim/bridgeclient/ws"
	ws_mock "github.com/bridgeim/bridgeclient/ws/mock"
)

type staticTokens string

func (s staticTokens) ActiveToken() string { return string(s) }

type recordSink struct {
	sync.Mutex
	msgs      []*chatlog.Message
	reactions []int64
}

func (s *recordSink) ApplyIncoming(m *chatlog.Message) {
	s.Lock()
	defer s.Unlock()
	s.msgs = append(s.msgs, m)
}

func (s *recordSink) ApplyReactionUpdate(messageID int64, _ []chatlog.Reaction, _ string) {
	s.Lock()
	defer s.Unlock()
	s.reactions = append(s.reactions, messageID)
}

func (s *recordSink) messageCount() int {
	s.Lock()
	defer s.Unlock()
	return len(s.msgs)
}

type frame struct {
	mt   int
	data []byte
}

// scriptedConn wires a mock connection whose reads come from the
// returned channel. Closing the connection fails pending reads, like a
// real socket.
func scriptedConn(ctrl *gomock.Controller, writes chan []byte) (*ws_mock.MockIConn, chan frame) {
	conn := ws_mock.NewMockIConn(ctrl)
	reads := make(chan frame, 8)
	var closeOnce sync.Once

	conn.EXPECT().SetReadLimit(gomock.Any()).AnyTimes()
	conn.EXPECT().SetReadDeadline(gomock.Any()).Return(nil).AnyTimes()
	conn.EXPECT().SetWriteDeadline(gomock.Any()).Return(nil).AnyTimes()
	conn.EXPECT().SetPongHandler(gomock.Any()).AnyTimes()
	conn.EXPECT().Close().DoAndReturn(func() error {
		closeOnce.Do(func() { close(reads) })
		return nil
	}).AnyTimes()
	conn.EXPECT().WriteMessage(gomock.Any(), gomock.Any()).DoAndReturn(func(mt int, data []byte) error {
		if mt == websocket.TextMessage && writes != nil {
			writes <- data
		}
		return nil
	}).AnyTimes()
	conn.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
		f, ok := <-reads
		if !ok {
			return 0, nil, errors.New("use of closed connection")
		}
		return f.mt, f.data, nil
	}).AnyTimes()
	return conn, reads
}

func waitState(t *testing.T, c *ws.Channel, want ws.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state %s not reached, still %s", want, c.State())
}

func TestSubscribeOnOpen(t *testing.T) {
	flag.Parse()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writes := make(chan []byte, 8)
	conn, _ := scriptedConn(ctrl, writes)

	dialer := ws_mock.NewMockIDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, urlStr string) (ws.IConn, error) {
			assert.Contains(t, urlStr, "ws://push.test/ws?")
			assert.Contains(t, urlStr, "token=tok-a")
			assert.Contains(t, urlStr, "client_id=")
			return conn, nil
		})

	c, err := ws.Mount(context.Background(), ws.Config{
		BaseURL: "http://push.test",
		ChatID:  42,
		Tokens:  staticTokens("tok-a"),
		Sink:    &recordSink{},
		Dialer:  dialer,
	})
	assert.NoError(t, err)
	defer c.Close()

	// the subscribe intent is the first frame out
	var env ws.Envelope
	select {
	case data := <-writes:
		assert.NoError(t, json.Unmarshal(data, &env))
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame written")
	}
	assert.Equal(t, ws.ActionSubscribe, env.Action)
	assert.EqualValues(t, 42, env.ChatID)

	waitState(t, c, ws.Subscribed)

	c.Close()
	assert.Equal(t, ws.Closed, c.State())
}

func TestIncomingEventsReachSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, reads := scriptedConn(ctrl, nil)
	dialer := ws_mock.NewMockIDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(conn, nil)

	sink := &recordSink{}
	c, err := ws.Mount(context.Background(), ws.Config{
		BaseURL: "http://push.test",
		ChatID:  42,
		Tokens:  staticTokens("tok"),
		Sink:    sink,
		Dialer:  dialer,
	})
	assert.NoError(t, err)
	defer c.Close()
	waitState(t, c, ws.Subscribed)

	reads <- frame{websocket.TextMessage, []byte(`{"message":{"id":7,"chat_id":42,"sender_id":2,"content":"hi"}}`)}
	reads <- frame{websocket.BinaryMessage, []byte("junk")}
	reads <- frame{websocket.TextMessage, []byte(`not json`)}
	reads <- frame{websocket.TextMessage, []byte(`{"action":"reaction","message_id":7,"reactions":[{"emoji":"x","count":1}]}`)}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.Lock()
		done := len(sink.msgs) == 1 && len(sink.reactions) == 1
		sink.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	sink.Lock()
	defer sink.Unlock()
	assert.Len(t, sink.msgs, 1)
	assert.EqualValues(t, 7, sink.msgs[0].ID)
	assert.Equal(t, []int64{7}, sink.reactions)
}

func TestRedialAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, _ := scriptedConn(ctrl, nil)
	dialer := ws_mock.NewMockIDialer(ctrl)

	var mu sync.Mutex
	dials := 0
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (ws.IConn, error) {
			mu.Lock()
			dials++
			n := dials
			mu.Unlock()
			if n < 3 {
				return nil, errors.New("connection refused")
			}
			return conn, nil
		}).Times(3)

	c, err := ws.Mount(context.Background(), ws.Config{
		BaseURL:    "http://push.test",
		ChatID:     42,
		Tokens:     staticTokens("tok"),
		Sink:       &recordSink{},
		Dialer:     dialer,
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	})
	assert.NoError(t, err)
	defer c.Close()

	waitState(t, c, ws.Subscribed)
	mu.Lock()
	assert.Equal(t, 3, dials)
	mu.Unlock()
}

func TestNoSessionGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialer := ws_mock.NewMockIDialer(ctrl)
	// no Dial expectation: dialing without a credential is a bug

	c, err := ws.Mount(context.Background(), ws.Config{
		BaseURL: "http://push.test",
		ChatID:  42,
		Tokens:  staticTokens(""),
		Sink:    &recordSink{},
		Dialer:  dialer,
	})
	assert.NoError(t, err)
	defer c.Close()

	waitState(t, c, ws.Closed)
}

func TestAnnounceOnlyWhenSubscribed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writes := make(chan []byte, 8)
	conn, _ := scriptedConn(ctrl, writes)
	dialer := ws_mock.NewMockIDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(conn, nil)

	c, err := ws.Mount(context.Background(), ws.Config{
		BaseURL: "http://push.test",
		ChatID:  42,
		Tokens:  staticTokens("tok"),
		Sink:    &recordSink{},
		Dialer:  dialer,
	})
	assert.NoError(t, err)
	defer c.Close()
	waitState(t, c, ws.Subscribed)
	<-writes // subscribe frame

	// a message for another chat never goes out
	assert.NoError(t, c.AnnounceMessage(&chatlog.Message{ID: 1, ChatID: 99}))

	assert.NoError(t, c.AnnounceMessage(&chatlog.Message{ID: 2, ChatID: 42, Content: "out"}))
	var env ws.Envelope
	select {
	case data := <-writes:
		assert.NoError(t, json.Unmarshal(data, &env))
	case <-time.After(2 * time.Second):
		t.Fatal("announcement not written")
	}
	assert.Equal(t, ws.ActionMessage, env.Action)
	assert.EqualValues(t, 2, env.Message.ID)

	c.Close()
	// after teardown announcements are dropped quietly
	assert.NoError(t, c.AnnounceMessage(&chatlog.Message{ID: 3, ChatID: 42}))
}

func TestOwnerSwapsLiveChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	connA, _ := scriptedConn(ctrl, nil)
	connB, _ := scriptedConn(ctrl, nil)
	dialer := ws_mock.NewMockIDialer(ctrl)
	first := dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(connA, nil)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(connB, nil).After(first)

	var owner ws.Owner
	defer owner.CloseAll()

	a, err := owner.Open(context.Background(), ws.Config{
		BaseURL: "http://push.test", ChatID: 1,
		Tokens: staticTokens("tok"), Sink: &recordSink{}, Dialer: dialer,
	})
	assert.NoError(t, err)
	waitState(t, a, ws.Subscribed)

	b, err := owner.Open(context.Background(), ws.Config{
		BaseURL: "http://push.test", ChatID: 2,
		Tokens: staticTokens("tok"), Sink: &recordSink{}, Dialer: dialer,
	})
	assert.NoError(t, err)

	// the old channel is fully closed before the new one dials
	assert.Equal(t, ws.Closed, a.State())
	waitState(t, b, ws.Subscribed)
	assert.Same(t, b, owner.Current())

	owner.CloseAll()
	assert.Equal(t, ws.Closed, b.State())
	assert.Nil(t, owner.Current())
}
