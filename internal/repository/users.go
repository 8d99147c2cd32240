package repository

import (
	"context"
	"strings"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// Authenticate looks up a credential by exact username and password.
// Passwords are stored as entered.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*types.User, error) {
	var v validator
	v.required("username", &username)
	v.required("password", &password)
	if v.err != nil {
		return nil, v.err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	creds, err := list[types.Credential](ctx, st, docstore.Users, docstore.Filter{
		"username": strings.TrimSpace(username),
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, ErrInvalidCredentials
	}
	u := creds[0].User()
	return &u, nil
}
