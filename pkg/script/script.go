// Package script defines how post-build scripts are run, without tying the
// rest of the code to a specific interpreter.
package script

import "context"

// Names of the bindings a post-build script is run with.
const (
	BindingManager = "manager"
	BindingSelf    = "self"
)

// Bindings maps global names to the Go values scripts can access under that
// name. Values are the build manager (*manager.Manager), plain scalars, or
// map[string]any for read-only records.
type Bindings map[string]any

// Executor runs scripts.
type Executor interface {
	// Exec runs the script synchronously. Any failure is returned as an
	// error, be it a syntax error, a runtime error, or a rejected call.
	Exec(ctx context.Context, src string, bindings Bindings) error
}

// ExecutorFunc is a function that implements the Executor interface.
type ExecutorFunc func(ctx context.Context, src string, bindings Bindings) error

// Exec implements the Executor interface.
func (f ExecutorFunc) Exec(ctx context.Context, src string, bindings Bindings) error {
	return f(ctx, src, bindings)
}
