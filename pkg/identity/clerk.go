package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ClerkProvider implements Provider against the Clerk management API.
type ClerkProvider struct {
	users *user.Client
}

// NewClerkProvider constructs a ClerkProvider from a secret key.
func NewClerkProvider(secretKey string) *ClerkProvider {
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)
	return &ClerkProvider{users: user.NewClient(cfg)}
}

// CreateUser provisions a remote account carrying the role in public metadata.
func (p *ClerkProvider) CreateUser(ctx context.Context, params CreateUserParams) (string, error) {
	metadata, err := json.Marshal(map[string]string{"role": params.Role})
	if err != nil {
		return "", fmt.Errorf("marshal role metadata: %w", err)
	}
	raw := json.RawMessage(metadata)

	created, err := p.users.Create(ctx, &user.CreateParams{
		Username:       clerk.String(params.Username),
		Password:       clerk.String(params.Password),
		FirstName:      clerk.String(params.FirstName),
		LastName:       clerk.String(params.LastName),
		PublicMetadata: &raw,
	})
	if err != nil {
		return "", fmt.Errorf("create identity user: %w", err)
	}
	return created.ID, nil
}

// UpdateUser pushes profile changes to the remote account.
func (p *ClerkProvider) UpdateUser(ctx context.Context, id string, params UpdateUserParams) error {
	update := &user.UpdateParams{
		Username:  clerk.String(params.Username),
		FirstName: clerk.String(params.FirstName),
		LastName:  clerk.String(params.LastName),
	}
	if params.Password != "" {
		update.Password = clerk.String(params.Password)
	}

	if _, err := p.users.Update(ctx, id, update); err != nil {
		return fmt.Errorf("update identity user %s: %w", id, err)
	}
	return nil
}

// DeleteUser removes the remote account.
func (p *ClerkProvider) DeleteUser(ctx context.Context, id string) error {
	if _, err := p.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete identity user %s: %w", id, err)
	}
	return nil
}
