package chatlog

import (
	"sync"
)

// chatLog is the ordered message log of one conversation.
// Order is append order, never re-sorted by timestamp.
type chatLog struct {
	order []*Message
	byID  map[int64]*Message
}

// Cache maps chat ids to ordered, append-only message logs with
// in-place patch support. A log is created when a conversation view
// opens and dropped when it closes; nothing here is persisted.
type Cache struct {
	sync.RWMutex
	logs map[int64]*chatLog
}

func NewCache() *Cache {
	return &Cache{logs: make(map[int64]*chatLog)}
}

func (c *Cache) logFor(chatID int64) *chatLog {
	l, ok := c.logs[chatID]
	if !ok {
		l = &chatLog{byID: make(map[int64]*Message)}
		c.logs[chatID] = l
	}
	return l
}

// Seed replaces the log of a chat with the given messages, in order.
// Used when a view opens and the initial message list arrives.
func (c *Cache) Seed(chatID int64, msgs []Message) {
	c.Lock()
	defer c.Unlock()

	l := &chatLog{byID: make(map[int64]*Message, len(msgs))}
	for i := range msgs {
		m := msgs[i]
		if _, ok := l.byID[m.ID]; ok {
			continue
		}
		l.order = append(l.order, &m)
		l.byID[m.ID] = &m
	}
	c.logs[chatID] = l
}

// Upsert is the idempotent insert keyed on message id: a new id is
// appended, an existing id is patched in place keeping its position.
// Returns true when the message was appended.
func (c *Cache) Upsert(m *Message) bool {
	c.Lock()
	defer c.Unlock()

	l := c.logFor(m.ChatID)
	if cur, ok := l.byID[m.ID]; ok {
		cur.Content = m.Content
		cur.IsEdited = m.IsEdited
		cur.IsDeleted = m.IsDeleted
		cur.EditedAt = m.EditedAt
		if m.Reactions != nil {
			cur.Reactions = m.Reactions
			cur.MyReaction = m.MyReaction
		}
		return false
	}

	cp := *m
	l.order = append(l.order, &cp)
	l.byID[cp.ID] = &cp
	return true
}

// PatchReactions updates the reactions of a message in place.
// Unknown ids are ignored: the message may not be loaded yet, or may
// have been scrolled away. Returns whether a message was patched.
func (c *Cache) PatchReactions(chatID, messageID int64, reactions []Reaction, myReaction string) bool {
	c.Lock()
	defer c.Unlock()

	l, ok := c.logs[chatID]
	if !ok {
		return false
	}
	m, ok := l.byID[messageID]
	if !ok {
		return false
	}
	if reactions == nil {
		reactions = []Reaction{}
	}
	m.Reactions = reactions
	m.MyReaction = myReaction
	return true
}

// MarkDeleted flips the deleted flag of a message; the entry stays in
// the log.
func (c *Cache) MarkDeleted(chatID, messageID int64) bool {
	c.Lock()
	defer c.Unlock()

	l, ok := c.logs[chatID]
	if !ok {
		return false
	}
	m, ok := l.byID[messageID]
	if !ok {
		return false
	}
	m.IsDeleted = true
	return true
}

// Messages returns a copy of the log, in append order.
func (c *Cache) Messages(chatID int64) []Message {
	c.RLock()
	defer c.RUnlock()

	l, ok := c.logs[chatID]
	if !ok {
		return nil
	}
	out := make([]Message, 0, len(l.order))
	for _, m := range l.order {
		out = append(out, *m)
	}
	return out
}

// Len returns the log length of a chat.
func (c *Cache) Len(chatID int64) int {
	c.RLock()
	defer c.RUnlock()
	if l, ok := c.logs[chatID]; ok {
		return len(l.order)
	}
	return 0
}

// Drop discards the log of a chat when its view closes.
func (c *Cache) Drop(chatID int64) {
	c.Lock()
	delete(c.logs, chatID)
	c.Unlock()
}
