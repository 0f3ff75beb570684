package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bridgeim/bridgeclient/account"
	"github.com/bridgeim/bridgeclient/chatlog"
)

// Token is the auth response: a bearer token plus the identity it
// authenticates.
type Token struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        account.Identity `json:"user"`
}

// Chat is one entry of the conversation listing.
type Chat struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug,omitempty"`
	Title        string `json:"title"`
	IsGroup      bool   `json:"is_group"`
	FolderID     *int64 `json:"folder_id,omitempty"`
	DisplayTitle string `json:"display_title,omitempty"`
}

// ChatDetail adds the member list.
type ChatDetail struct {
	ID      int64        `json:"id"`
	Title   string       `json:"title"`
	IsGroup bool         `json:"is_group"`
	Members []ChatMember `json:"members"`
}

type ChatMember struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IdentityUpdate carries the mutable profile fields; nil means keep.
type IdentityUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	AboutMe     *string `json:"about_me,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	HideEmail   *bool   `json:"hide_email,omitempty"`
}

// Login creates a session and upserts it into the account store,
// making it active.
func (c *Client) Login(ctx context.Context, email, password string) (*account.Session, error) {
	var tok Token
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSONNoAuth(ctx, "/auth/login", body, &tok); err != nil {
		return nil, err
	}
	return c.adoptToken(&tok)
}

// Register creates an account and logs it in. The service replies with
// the same token shape as Login.
func (c *Client) Register(ctx context.Context, email, password, displayName, username string) (*account.Session, error) {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}
	if username != "" {
		body["username"] = username
	}
	var tok Token
	if err := c.postJSONNoAuth(ctx, "/auth/register", body, &tok); err != nil {
		return nil, err
	}
	return c.adoptToken(&tok)
}

func (c *Client) adoptToken(tok *Token) (*account.Session, error) {
	if tok.AccessToken == "" || tok.User.ID == 0 {
		return nil, fmt.Errorf("malformed auth response: missing token or user")
	}
	sess := account.Session{Token: tok.AccessToken, Identity: tok.User}
	c.accounts.Upsert(sess)
	return &sess, nil
}

// VerifyCode submits the emailed 6-digit code for the active session
// and patches the verified identity into the store.
func (c *Client) VerifyCode(ctx context.Context, code string) (*account.Identity, error) {
	var id account.Identity
	if err := c.postJSON(ctx, "/auth/verify-code", map[string]string{"code": code}, &id); err != nil {
		return nil, err
	}
	c.accounts.UpdateIdentity(id)
	return &id, nil
}

// Me fetches the active session's identity.
func (c *Client) Me(ctx context.Context) (*account.Identity, error) {
	var id account.Identity
	if err := c.getJSON(ctx, "/users/me", &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// RefreshIdentity re-fetches the active identity and patches the
// stored copy in place, keeping balance and flags current.
func (c *Client) RefreshIdentity(ctx context.Context) error {
	id, err := c.Me(ctx)
	if err != nil {
		return err
	}
	c.accounts.UpdateIdentity(*id)
	return nil
}

// UpdateMe mutates the active identity's profile.
func (c *Client) UpdateMe(ctx context.Context, upd IdentityUpdate) (*account.Identity, error) {
	var id account.Identity
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", upd, &id, false); err != nil {
		return nil, err
	}
	c.accounts.UpdateIdentity(id)
	return &id, nil
}

// PublicUser fetches another user's public profile as raw JSON; this
// engine does not interpret it.
func (c *Client) PublicUser(ctx context.Context, userID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%d", userID), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SearchUsers looks up identities by the query string.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]account.Identity, error) {
	var out []account.Identity
	path := "/users/search?q=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chats lists the conversations of the active identity.
func (c *Client) Chats(ctx context.Context) ([]Chat, error) {
	var out []Chat
	if err := c.getJSON(ctx, "/chats/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChatDetail fetches one conversation with its members.
func (c *Client) ChatDetail(ctx context.Context, chatID int64) (*ChatDetail, error) {
	var out ChatDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/%d", chatID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DirectChat finds or creates the one-on-one conversation with a user.
func (c *Client) DirectChat(ctx context.Context, userID int64) (*Chat, error) {
	var out Chat
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/dm/%d", userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages lists a conversation's messages, oldest first.
func (c *Client) Messages(ctx context.Context, chatID int64) ([]chatlog.Message, error) {
	var out []chatlog.Message
	if err := c.getJSON(ctx, fmt.Sprintf("/messages/chat/%d", chatID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage creates a message; the server assigns id and timestamps.
func (c *Client) SendMessage(ctx context.Context, chatID int64, content, messageType string) (*chatlog.Message, error) {
	body := map[string]string{"content": content, "message_type": messageType}
	var out chatlog.Message
	if err := c.postJSON(ctx, fmt.Sprintf("/messages/chat/%d", chatID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetReaction sets or, with emoji == "", clears the active identity's
// reaction. The response is the patched message.
func (c *Client) SetReaction(ctx context.Context, messageID int64, emoji string) (*chatlog.Message, error) {
	body := map[string]interface{}{"emoji": nil}
	if emoji != "" {
		body["emoji"] = emoji
	}
	var out chatlog.Message
	if err := c.postJSON(ctx, fmt.Sprintf("/messages/%d/reaction", messageID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMessage asks the server to flag a message deleted.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/messages/%d", messageID), reqOpts{}, nil)
}

// GiftCatalog, SendGift and TransferLight are currency calls whose
// bodies this engine passes through uninterpreted.

func (c *Client) GiftCatalog(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/gifts/catalog", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) SendGift(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/gifts/send-gift", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) TransferLight(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/users/transfer-light", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// LightLantern claims the lantern bonus. The server replies with the
// updated identity, which is patched into the store so the new balance
// shows without a separate refresh.
func (c *Client) LightLantern(ctx context.Context) (*account.Identity, error) {
	var id account.Identity
	if err := c.postJSON(ctx, "/users/light-lantern", nil, &id); err != nil {
		return nil, err
	}
	c.accounts.UpdateIdentity(id)
	return &id, nil
}

// SyncPoint fetches a chat's shared checklist as raw JSON; this engine
// does not interpret it.
func (c *Client) SyncPoint(ctx context.Context, chatID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/sync-points/chat/%d", chatID), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
