package ws

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Owner keeps at most one live channel, mirroring the single open
// conversation view. Opening a conversation tears down the previous
// channel before the new one dials.
type Owner struct {
	sync.Mutex
	current *Channel
}

// Open swaps the live channel to the given conversation. The previous
// channel, if any, is fully closed first so its events can never land
// in the new view.
func (o *Owner) Open(ctx context.Context, cfg Config) (*Channel, error) {
	o.Lock()
	prev := o.current
	o.current = nil
	o.Unlock()

	if prev != nil {
		glog.V(5).Infof("Open(): closing channel for chat %d before opening chat %d", prev.ChatID(), cfg.ChatID)
		prev.Close()
		channelsSwapped.Inc()
	}

	ch, err := Mount(ctx, cfg)
	if err != nil {
		return nil, err
	}

	o.Lock()
	o.current = ch
	o.Unlock()
	return ch, nil
}

// Current returns the live channel, or nil when no view is open.
func (o *Owner) Current() *Channel {
	o.Lock()
	defer o.Unlock()
	return o.current
}

// CloseAll tears down the live channel, if any.
func (o *Owner) CloseAll() {
	o.Lock()
	ch := o.current
	o.current = nil
	o.Unlock()
	if ch != nil {
		ch.Close()
	}
}
