package messaging

import (
	"context"
	"fmt"
	"time"

	stream "github.com/GetStream/stream-chat-go/v6"
)

// StreamClient implements Client against Stream Chat's server API.
type StreamClient struct {
	api *stream.Client
}

// NewStreamClient constructs a StreamClient from API credentials.
func NewStreamClient(apiKey, apiSecret string) (*StreamClient, error) {
	api, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init stream client: %w", err)
	}
	return &StreamClient{api: api}, nil
}

// CreateToken issues a user token for the chat widget.
func (c *StreamClient) CreateToken(userID string, expiresAt time.Time) (string, error) {
	token, err := c.api.CreateToken(userID, expiresAt)
	if err != nil {
		return "", fmt.Errorf("create chat token for %s: %w", userID, err)
	}
	return token, nil
}

// UpsertUser creates or refreshes a single chat-provider user.
func (c *StreamClient) UpsertUser(ctx context.Context, u User) error {
	_, err := c.api.UpsertUser(ctx, toStreamUser(u))
	if err != nil {
		return fmt.Errorf("upsert chat user %s: %w", u.ID, err)
	}
	return nil
}

// UpsertUsers pushes a batch of users to the chat provider.
func (c *StreamClient) UpsertUsers(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	batch := make([]*stream.User, 0, len(users))
	for _, u := range users {
		batch = append(batch, toStreamUser(u))
	}
	if _, err := c.api.UpsertUsers(ctx, batch...); err != nil {
		return fmt.Errorf("upsert %d chat users: %w", len(users), err)
	}
	return nil
}

// MemberChannels returns every channel the user is a member of, most recent
// message first.
func (c *StreamClient) MemberChannels(ctx context.Context, userID string) ([]Channel, error) {
	resp, err := c.api.QueryChannels(ctx, &stream.QueryOption{
		Filter: map[string]interface{}{
			"members": map[string]interface{}{"$in": []string{userID}},
		},
	}, &stream.SortOption{Field: "last_message_at", Direction: -1})
	if err != nil {
		return nil, fmt.Errorf("query channels for %s: %w", userID, err)
	}

	channels := make([]Channel, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		members := make([]string, 0, len(ch.Members))
		for _, m := range ch.Members {
			if m.User != nil {
				members = append(members, m.User.ID)
			}
		}
		channel := Channel{ID: ch.ID, Type: ch.Type, MemberIDs: members}
		if !ch.LastMessageAt.IsZero() {
			ts := ch.LastMessageAt
			channel.LastMessageAt = &ts
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// UnreadCounts aggregates the provider-computed unread totals for a user.
func (c *StreamClient) UnreadCounts(ctx context.Context, userID string) (int, []ChannelUnread, error) {
	resp, err := c.api.UnreadCounts(ctx, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("unread counts for %s: %w", userID, err)
	}

	perChannel := make([]ChannelUnread, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		perChannel = append(perChannel, ChannelUnread{ChannelID: ch.ChannelID, Count: ch.UnreadCount})
	}
	return resp.TotalUnreadCount, perChannel, nil
}

func toStreamUser(u User) *stream.User {
	return &stream.User{
		ID:    u.ID,
		Name:  u.Name,
		Image: u.Image,
		ExtraData: map[string]interface{}{
			"role": u.Role,
		},
	}
}
