package messaging

import (
	"context"
	"time"
)

// User is the chat-provider projection of a principal.
type User struct {
	ID    string
	Name  string
	Role  string
	Image string
}

// Channel summarises a conversation the user belongs to.
type Channel struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	MemberIDs     []string   `json:"member_ids"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ChannelUnread reports unread messages for a single channel.
type ChannelUnread struct {
	ChannelID string `json:"channel_id"`
	Count     int    `json:"count"`
}

// Client is the hosted chat provider surface: token issuance, user upsert,
// member-channel queries and unread counts. Message delivery and presence
// stay entirely on the provider side.
type Client interface {
	CreateToken(userID string, expiresAt time.Time) (string, error)
	UpsertUser(ctx context.Context, u User) error
	UpsertUsers(ctx context.Context, users []User) error
	MemberChannels(ctx context.Context, userID string) ([]Channel, error)
	UnreadCounts(ctx context.Context, userID string) (int, []ChannelUnread, error)
}
