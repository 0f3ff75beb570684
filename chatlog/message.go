package chatlog

import "time"

// message_type values understood by the service. Other values pass
// through untouched.
const (
	TypeText  = "text"
	TypeVoice = "voice"
	TypeEcho  = "echo"
	TypeGift  = "gift"
)

// Reaction is an aggregated emoji count on a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message is one entry of a conversation log, in the wire format of
// the messages API. Identity is ID, unique within a chat. A message is
// never removed from a log once appended: deletion flips IsDeleted.
type Message struct {
	ID          int64      `json:"id"`
	ChatID      int64      `json:"chat_id"`
	SenderID    int64      `json:"sender_id"`
	Content     string     `json:"content"`
	MessageType string     `json:"message_type"`
	GiftID      *int64     `json:"gift_id,omitempty"`
	IsEdited    bool       `json:"is_edited"`
	IsDeleted   bool       `json:"is_deleted"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Reactions   []Reaction `json:"reactions,omitempty"`
	MyReaction  string     `json:"my_reaction,omitempty"`
}
