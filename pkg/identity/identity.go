package identity

import "context"

// CreateUserParams carries the fields required to provision an account.
type CreateUserParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// UpdateUserParams carries the mutable account fields. Password is only
// changed when non-empty, matching the provider's partial-update semantics.
type UpdateUserParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// Provider is the identity-provider user-management surface this service
// needs. Accounts live remotely; local teacher/student rows reference the
// remote account ID.
type Provider interface {
	CreateUser(ctx context.Context, params CreateUserParams) (string, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) error
	DeleteUser(ctx context.Context, id string) error
}
