// Package cont carries the authenticated caller through the request context.
package cont

import (
	"context"

	"eventreg/entity"
)

type userKey struct{}

// PutUser stores a copy so handlers cannot mutate the cached auth record.
func PutUser(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, userKey{}, *user)
}

// GetUser returns the caller, or a user with no role when the route is unauthenticated.
func GetUser(ctx context.Context) *entity.User {
	if user, ok := ctx.Value(userKey{}).(entity.User); ok {
		return &user
	}
	return &entity.User{}
}
