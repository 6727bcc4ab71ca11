package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by the no-op client for every operation.
var ErrDisabled = errors.New("messaging: chat disabled")

// NoopClient satisfies Client when no chat provider is configured. Every
// call fails with ErrDisabled so misconfiguration surfaces at the caller.
type NoopClient struct{}

// NewNoopClient returns a disabled chat client.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (*NoopClient) CreateToken(string, time.Time) (string, error) { return "", ErrDisabled }

func (*NoopClient) UpsertUser(context.Context, User) error { return ErrDisabled }

func (*NoopClient) UpsertUsers(context.Context, []User) error { return ErrDisabled }

func (*NoopClient) MemberChannels(context.Context, string) ([]Channel, error) {
	return nil, ErrDisabled
}

func (*NoopClient) UnreadCounts(context.Context, string) (int, []ChannelUnread, error) {
	return 0, nil, ErrDisabled
}
