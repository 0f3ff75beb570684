package chatlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func msg(id, chatID, senderID int64, content string) *Message {
	return &Message{ID: id, ChatID: chatID, SenderID: senderID, Content: content, MessageType: TypeText}
}

func TestUpsertAppendsInArrivalOrder(t *testing.T) {
	c := NewCache()

	assert.True(t, c.Upsert(msg(3, 42, 1, "first")))
	assert.True(t, c.Upsert(msg(1, 42, 2, "second")))
	assert.True(t, c.Upsert(msg(2, 42, 1, "third")))

	// arrival order, not id or timestamp order
	got := c.Messages(42)
	assert.Len(t, got, 3)
	assert.EqualValues(t, 3, got[0].ID)
	assert.EqualValues(t, 1, got[1].ID)
	assert.EqualValues(t, 2, got[2].ID)
}

func TestUpsertExistingPatchesInPlace(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))
	c.Upsert(msg(2, 42, 1, "b"))

	edited := msg(1, 42, 1, "a, edited")
	edited.IsEdited = true
	assert.False(t, c.Upsert(edited))

	got := c.Messages(42)
	assert.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].ID)
	assert.Equal(t, "a, edited", got[0].Content)
	assert.True(t, got[0].IsEdited)
}

func TestUpsertExistingCarriesReactionState(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))

	// a full-message push carries the reaction state too
	reacted := msg(1, 42, 1, "a")
	reacted.Reactions = []Reaction{{Emoji: "❤️", Count: 2}}
	reacted.MyReaction = "❤️"
	assert.False(t, c.Upsert(reacted))

	got := c.Messages(42)
	assert.Equal(t, []Reaction{{Emoji: "❤️", Count: 2}}, got[0].Reactions)
	assert.Equal(t, "❤️", got[0].MyReaction)

	// a push without reaction data leaves the state alone
	assert.False(t, c.Upsert(msg(1, 42, 1, "a")))
	got = c.Messages(42)
	assert.Equal(t, "❤️", got[0].MyReaction)
	assert.Len(t, got[0].Reactions, 1)
}

func TestSeedDropsDuplicateIDs(t *testing.T) {
	c := NewCache()
	c.Seed(42, []Message{*msg(1, 42, 1, "a"), *msg(2, 42, 1, "b"), *msg(1, 42, 1, "dup")})
	assert.Equal(t, 2, c.Len(42))
}

func TestPatchReactions(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))

	ok := c.PatchReactions(42, 1, []Reaction{{Emoji: "🔥", Count: 2}}, "🔥")
	assert.True(t, ok)

	got := c.Messages(42)
	assert.Equal(t, []Reaction{{Emoji: "🔥", Count: 2}}, got[0].Reactions)
	assert.Equal(t, "🔥", got[0].MyReaction)

	// removing my reaction
	ok = c.PatchReactions(42, 1, []Reaction{{Emoji: "🔥", Count: 1}}, "")
	assert.True(t, ok)
	assert.Equal(t, "", c.Messages(42)[0].MyReaction)
}

func TestPatchReactionsUnknownID(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))
	before := c.Messages(42)

	assert.False(t, c.PatchReactions(42, 999, []Reaction{{Emoji: "👍", Count: 1}}, "👍"))
	assert.False(t, c.PatchReactions(7, 1, nil, ""))

	assert.Equal(t, before, c.Messages(42))
}

func TestMarkDeletedKeepsEntry(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))

	assert.True(t, c.MarkDeleted(42, 1))
	got := c.Messages(42)
	assert.Len(t, got, 1)
	assert.True(t, got[0].IsDeleted)

	assert.False(t, c.MarkDeleted(42, 2))
}

func TestDrop(t *testing.T) {
	c := NewCache()
	c.Upsert(msg(1, 42, 1, "a"))
	c.Upsert(msg(2, 7, 1, "b"))

	c.Drop(42)
	assert.Equal(t, 0, c.Len(42))
	assert.Equal(t, 1, c.Len(7))
}
