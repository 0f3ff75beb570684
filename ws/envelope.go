package ws

import (
	"github.com/bridgeim/bridgeclient/chatlog"
)

// Envelope actions on the push channel.
const (
	ActionSubscribe   = "subscribe_chat"
	ActionUnsubscribe = "unsubscribe_chat"
	ActionMessage     = "message"
	ActionReaction    = "reaction"
)

// Envelope is the wire frame of the push channel, both directions.
// Outbound it carries subscribe intents and message announcements;
// inbound it carries pushed messages and reaction updates.
type Envelope struct {
	Action     string             `json:"action,omitempty"`
	ChatID     int64              `json:"chat_id,omitempty"`
	Message    *chatlog.Message   `json:"message,omitempty"`
	MessageID  int64              `json:"message_id,omitempty"`
	Reactions  []chatlog.Reaction `json:"reactions,omitempty"`
	MyReaction string             `json:"my_reaction,omitempty"`
}

// Sink receives inbound events. The channel itself does no
// de-duplication; that is the sink's job.
type Sink interface {
	ApplyIncoming(m *chatlog.Message)
	ApplyReactionUpdate(messageID int64, reactions []chatlog.Reaction, myReaction string)
}

// TokenSource yields the active session's credential at dial time.
type TokenSource interface {
	ActiveToken() string
}
