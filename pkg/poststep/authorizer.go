package poststep

import (
	"context"
	"errors"
	"fmt"

	"github.com/iver-wharf/wharf-postbuild/pkg/build"
)

// ErrPermissionDenied is returned when the step may not run at all.
var ErrPermissionDenied = errors.New("permission denied")

// Authorizer checks if post-build scripts may run on a build.
type Authorizer interface {
	// CheckPermission returns an error wrapping ErrPermissionDenied if the
	// step may not run on the build.
	CheckPermission(ctx context.Context, b *build.Build) error
}

// AuthorizerFunc is a function that implements the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, b *build.Build) error

// CheckPermission implements the Authorizer interface.
func (f AuthorizerFunc) CheckPermission(ctx context.Context, b *build.Build) error {
	return f(ctx, b)
}

// AllowAll is an Authorizer that permits every build.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, *build.Build) error {
	return nil
})

// UserAuthorizer permits running scripts only for a set of users.
type UserAuthorizer struct {
	// User is the user running the step.
	User string
	// Allowed lists the users that may run scripts. An empty list allows
	// everyone.
	Allowed []string
}

// CheckPermission implements the Authorizer interface.
func (a UserAuthorizer) CheckPermission(_ context.Context, b *build.Build) error {
	if len(a.Allowed) == 0 {
		return nil
	}
	for _, u := range a.Allowed {
		if u == a.User {
			return nil
		}
	}
	return fmt.Errorf("user %q may not run post-build scripts on %s: %w", a.User, b, ErrPermissionDenied)
}
