package chatlog

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// MessageAPI is the synchronous path: the subset of the REST client
// the reconciler calls.
type MessageAPI interface {
	Messages(ctx context.Context, chatID int64) ([]Message, error)
	SendMessage(ctx context.Context, chatID int64, content, messageType string) (*Message, error)
}

// Announcer is the outbound side of the realtime channel. Announce is
// best effort: the channel drops it unless it is subscribed to the
// message's chat.
type Announcer interface {
	AnnounceMessage(m *Message) error
}

// Reconciler merges the two delivery paths of one open conversation,
// the synchronous send result and asynchronous push events, into the
// cache. De-duplication is by message id: the cache upsert is
// idempotent, so the sender's own pushed echo patches in place instead
// of duplicating, and a second device of the same identity still gets
// its messages appended.
type Reconciler struct {
	mu sync.Mutex

	cache  *Cache
	api    MessageAPI
	chatID int64

	announcer Announcer

	// OnAppend, when set, is called for every message appended to the
	// open conversation. The view layer hangs its re-render here.
	OnAppend func(m *Message)
}

// NewReconciler binds a reconciler to one open conversation.
func NewReconciler(cache *Cache, api MessageAPI, chatID int64) *Reconciler {
	return &Reconciler{
		cache:  cache,
		api:    api,
		chatID: chatID,
	}
}

// SetAnnouncer attaches the realtime channel once it is mounted.
func (r *Reconciler) SetAnnouncer(a Announcer) {
	r.mu.Lock()
	r.announcer = a
	r.mu.Unlock()
}

// ChatID returns the open conversation id.
func (r *Reconciler) ChatID() int64 { return r.chatID }

// Load seeds the cache with the conversation's message list.
func (r *Reconciler) Load(ctx context.Context) error {
	msgs, err := r.api.Messages(ctx, r.chatID)
	if err != nil {
		return err
	}
	r.cache.Seed(r.chatID, msgs)
	glog.V(5).Infof("Load(): chat %d seeded with %d messages", r.chatID, len(msgs))
	return nil
}

// SendMessage sends over the synchronous path and completes
// optimistically: the returned message goes into the cache right away,
// without waiting for a push confirmation, then is announced over the
// channel so other participants' channels receive it.
func (r *Reconciler) SendMessage(ctx context.Context, content, messageType string) (*Message, error) {
	m, err := r.api.SendMessage(ctx, r.chatID, content, messageType)
	if err != nil {
		return nil, err
	}
	sentTotal.Inc()

	if r.cache.Upsert(m) {
		r.notifyAppend(m)
	}

	r.mu.Lock()
	a := r.announcer
	r.mu.Unlock()
	if a != nil {
		if err := a.AnnounceMessage(m); err != nil {
			glog.Errorf("SendMessage(): announce message %d error: %v", m.ID, err)
		}
	}
	return m, nil
}

// ApplyIncoming applies one pushed message. Events for chats other
// than the open one are dropped, there is no background buffering. A
// pushed message whose id is already cached, typically the sender's
// own echo, patches in place and does not grow the log.
func (r *Reconciler) ApplyIncoming(m *Message) {
	if m == nil {
		return
	}
	if m.ChatID != r.chatID {
		glog.V(5).Infof("ApplyIncoming(): drop message %d for chat %d, open chat is %d", m.ID, m.ChatID, r.chatID)
		pushDiscardedTotal.WithLabelValues(discardForeignChat).Inc()
		return
	}
	if r.cache.Upsert(m) {
		pushAppliedTotal.Inc()
		r.notifyAppend(m)
	} else {
		pushDiscardedTotal.WithLabelValues(discardDuplicate).Inc()
	}
}

// ApplyReactionUpdate patches reactions of a cached message in place.
// An unknown message id is not an error: the update raced against a
// message that is not loaded.
func (r *Reconciler) ApplyReactionUpdate(messageID int64, reactions []Reaction, myReaction string) {
	if r.cache.PatchReactions(r.chatID, messageID, reactions, myReaction) {
		reactionPatchedTotal.Inc()
	} else {
		reactionMissedTotal.Inc()
	}
}

// Messages returns the open conversation's log, in arrival order.
func (r *Reconciler) Messages() []Message {
	return r.cache.Messages(r.chatID)
}

// Close discards the conversation log.
func (r *Reconciler) Close() {
	r.cache.Drop(r.chatID)
}

func (r *Reconciler) notifyAppend(m *Message) {
	r.mu.Lock()
	fn := r.OnAppend
	r.mu.Unlock()
	if fn != nil {
		cp := *m
		fn(&cp)
	}
}
