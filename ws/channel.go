package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"

	"github.com/bridgeim/bridgeclient/chatlog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 3 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 20 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 25 * time.Second

	// websocket max message size to read.
	readLimit = 65536

	dataChanSize = 16
)

// Reconnect backoff bounds, applied while the owning view stays
// mounted.
const (
	BackoffMinInterval = 1 * time.Second
	BackoffMaxInterval = 60 * time.Second
	BackoffMultiplier  = 1.5
)

// ErrNoSession means there is no active credential to embed in the
// connection handshake; the channel cannot open without one.
var ErrNoSession = errors.New("ws: no active session")

// Config describes one channel. Zero Dialer, ClientID and backoff
// bounds get defaults.
type Config struct {
	// BaseURL is the http(s) server base; the scheme is rewritten to
	// ws(s) for the handshake.
	BaseURL string
	ChatID  int64
	Tokens  TokenSource
	Sink    Sink

	Dialer   IDialer
	ClientID string

	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Channel is one live duplex connection serving one open conversation
// view. It dials with the active credential, emits the subscribe
// intent as soon as the transport opens, forwards inbound events to
// the sink and redials with bounded backoff until Close.
type Channel struct {
	sync.Mutex

	cfg     Config
	baseURL *url.URL

	state    State
	conn     IConn
	dataChan chan *Envelope
	closing  bool // current connection is going down

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Mount opens the channel for one conversation view. Teardown happens
// on Close or when ctx is cancelled, whichever comes first.
func Mount(ctx context.Context, cfg Config) (*Channel, error) {
	if cfg.Tokens == nil || cfg.Sink == nil {
		return nil, errors.New("ws: Tokens and Sink are required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("ws: invalid base url `%s`", cfg.BaseURL)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = gorillaDialer{}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = strings.ReplaceAll(uuid.New(), "-", "")
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = BackoffMinInterval
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = BackoffMaxInterval
	}

	ctx2, cancel := context.WithCancel(ctx)
	c := &Channel{
		cfg:     cfg,
		baseURL: base,
		state:   Disconnected,
		ctx:     ctx2,
		cancel:  cancel,
	}
	c.wg.Add(1)
	go c.run()
	return c, nil
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.Lock()
	defer c.Unlock()
	return c.state
}

// ChatID returns the conversation this channel serves.
func (c *Channel) ChatID() int64 { return c.cfg.ChatID }

// Close tears the channel down immediately from any state, with no
// close handshake. Safe to call more than once. After Close returns no
// event reaches the sink.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.Lock()
		conn := c.conn
		c.Unlock()
		if conn != nil {
			_ = conn.Close() // unblock the read loop
		}
		c.wg.Wait()
		glog.V(5).Infof("Close(): chat %d: channel closed", c.cfg.ChatID)
	})
}

// AnnounceMessage publishes a just-sent message so other participants'
// channels receive it. Dropped quietly unless the channel is
// subscribed to the message's chat.
func (c *Channel) AnnounceMessage(m *chatlog.Message) error {
	c.Lock()
	defer c.Unlock()
	if c.state != Subscribed || c.closing || m.ChatID != c.cfg.ChatID {
		glog.V(5).Infof("AnnounceMessage(): not subscribed to chat %d, dropping message %d", m.ChatID, m.ID)
		return nil
	}
	select {
	case c.dataChan <- &Envelope{Action: ActionMessage, ChatID: m.ChatID, Message: m}:
		return nil
	default:
		return fmt.Errorf("ws: outbound queue full, dropped message %d", m.ID)
	}
}

func (c *Channel) transition(to State) bool {
	c.Lock()
	defer c.Unlock()
	if !canTransition(c.state, to) {
		glog.Errorf("ws: chat %d: invalid transition %s -> %s", c.cfg.ChatID, c.state, to)
		return false
	}
	if c.state != to {
		glog.V(5).Infof("ws: chat %d: %s -> %s", c.cfg.ChatID, c.state, to)
		c.state = to
	}
	return true
}

// run dials, serves and redials until the channel is unmounted.
func (c *Channel) run() {
	defer c.wg.Done()
	defer c.transition(Closed)

	var sleep time.Duration
	for {
		subscribed, err := c.connectOnce()
		if c.ctx.Err() != nil {
			return
		}
		if err == ErrNoSession {
			glog.Errorf("run(): chat %d: %v, not retrying", c.cfg.ChatID, err)
			return
		}
		if err != nil {
			glog.Errorf("run(): chat %d: connection failed: %v", c.cfg.ChatID, err)
		}
		c.transition(Closed)

		if subscribed {
			sleep = 0
		}
		backoff(&sleep, c.cfg.BackoffMin, c.cfg.BackoffMax)
		reconnectsTotal.Inc()
		glog.V(5).Infof("run(): chat %d: reconnecting in %s", c.cfg.ChatID, sleep)
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// connectOnce serves one connection to completion. It reports whether
// the subscribe intent went out, which resets the redial backoff.
func (c *Channel) connectOnce() (bool, error) {
	token := c.cfg.Tokens.ActiveToken()
	if token == "" {
		return false, ErrNoSession
	}

	if !c.transition(Connecting) {
		return false, fmt.Errorf("ws: refusing to connect from state %s", c.State())
	}

	conn, err := c.cfg.Dialer.Dial(c.ctx, c.endpoint(token))
	if err != nil {
		return false, err
	}

	c.Lock()
	c.conn = conn
	c.dataChan = make(chan *Envelope, dataChanSize)
	c.closing = false
	c.Unlock()

	if !c.transition(Open) {
		_ = conn.Close()
		return false, nil
	}

	// subscribe intent goes out as soon as the transport is open
	if err := writeEnvelope(conn, &Envelope{Action: ActionSubscribe, ChatID: c.cfg.ChatID}); err != nil {
		_ = conn.Close()
		return false, err
	}
	if !c.transition(Subscribed) {
		_ = conn.Close()
		return false, nil
	}
	glog.Infof("chat %d: subscribed", c.cfg.ChatID)

	errC := make(chan error, 2)
	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		errC <- c.recvLoop(conn)
	}()
	go func() {
		defer loops.Done()
		errC <- c.sendLoop(conn)
	}()

	var cause error
	select {
	case <-c.ctx.Done():
	case cause = <-errC:
	}
	c.shutdownConn(conn)
	loops.Wait()
	return true, cause
}

func (c *Channel) shutdownConn(conn IConn) {
	c.Lock()
	if c.closing {
		c.Unlock()
		return
	}
	c.closing = true
	dataChan := c.dataChan
	c.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	close(dataChan)
}

func (c *Channel) recvLoop(conn IConn) error {
	defer glog.V(5).Infof("recvLoop(): chat %d: exited", c.cfg.ChatID)

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			glog.V(5).Infof("recvLoop(): ignoring message type %d", msgType)
			continue
		}
		// the view may have been torn down while the read blocked
		if c.ctx.Err() != nil {
			return nil
		}

		glog.V(7).Infof("recvLoop(): incoming: %.200s", string(data))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			glog.Errorf("recvLoop(): bad envelope: %v, data: %.100s", err, string(data))
			continue
		}
		c.dispatch(&env)
	}
}

func (c *Channel) dispatch(env *Envelope) {
	switch {
	case env.Message != nil:
		c.cfg.Sink.ApplyIncoming(env.Message)
	case env.Action == ActionReaction && env.MessageID != 0:
		c.cfg.Sink.ApplyReactionUpdate(env.MessageID, env.Reactions, env.MyReaction)
	default:
		glog.V(5).Infof("dispatch(): ignoring envelope, action: %s", env.Action)
	}
}

func (c *Channel) sendLoop(conn IConn) error {
	c.Lock()
	dataChan := c.dataChan
	c.Unlock()

	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		glog.V(5).Infof("sendLoop(): chat %d: exited", c.cfg.ChatID)
	}()

	for {
		select {
		case env, ok := <-dataChan:
			if !ok { // chan was closed
				return nil
			}
			if err := writeEnvelope(conn, env); err != nil {
				return err
			}
		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func writeEnvelope(conn IConn, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// endpoint builds the handshake URL, embedding the credential.
func (c *Channel) endpoint(token string) string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("token", token)
	q.Set("client_id", c.cfg.ClientID)
	u.RawQuery = q.Encode()
	return u.String()
}

func backoff(d *time.Duration, min, max time.Duration) {
	if *d < min {
		*d = min
		return
	}
	*d = time.Duration(float64(*d) * BackoffMultiplier)
	if *d > max {
		*d = max
	}
}
