package errutil

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Pos is a positioned error type that holds metadata about where in a YAML
// document the error occurred.
type Pos struct {
	Err    error
	Line   int
	Column int
}

// NewPos wraps an error with the position of a YAML node.
func NewPos(err error, node *yaml.Node) error {
	if err == nil || node == nil {
		return err
	}
	return Pos{Err: err, Line: node.Line, Column: node.Column}
}

// Error implements the error interface.
func (err Pos) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Unwrap implements the interface to support errors.Unwrap.
func (err Pos) Unwrap() error {
	return err.Err
}

// AsPos returns the position of the error, or 0,0 if the error doesn't have a
// position.
func AsPos(err error) (int, int) {
	var posErr Pos
	if !errors.As(err, &posErr) {
		return 0, 0
	}
	return posErr.Line, posErr.Column
}

// Scoped is an error prefixed with the path of the YAML key it occurred in,
// such as "axes/0/values".
type Scoped struct {
	Scope string
	Err   error
}

// Scope prefixes the error's scope with the given path. Scoping an already
// scoped error prepends to its path.
func Scope(err error, path string) error {
	if err == nil {
		return nil
	}
	var scoped Scoped
	if errors.As(err, &scoped) {
		return Scoped{Scope: path + "/" + scoped.Scope, Err: scoped.Err}
	}
	return Scoped{Scope: path, Err: err}
}

// AsScope returns the key path of the error, or an empty string if the
// error isn't scoped.
func AsScope(err error) string {
	var scoped Scoped
	if !errors.As(err, &scoped) {
		return ""
	}
	return scoped.Scope
}

// Error implements the error interface.
func (err Scoped) Error() string {
	return fmt.Sprintf("%s: %s", err.Scope, err.Err)
}

// Unwrap implements the interface to support errors.Unwrap.
func (err Scoped) Unwrap() error {
	return err.Err
}

// Slice is a slice of errors.
type Slice []error

// Add appends errors to the slice. Nil errors are ignored.
func (s *Slice) Add(errs ...error) {
	for _, err := range errs {
		if err != nil {
			*s = append(*s, err)
		}
	}
}

// Scope scopes every error in the slice with the given path.
func (s Slice) Scope(path string) Slice {
	scoped := make(Slice, len(s))
	for i, err := range s {
		scoped[i] = Scope(err, path)
	}
	return scoped
}

// SortByPos sorts the errors by their position. Errors without a position
// are placed first.
func (s Slice) SortByPos() {
	sort.SliceStable(s, func(i, j int) bool {
		aLine, aColumn := AsPos(s[i])
		bLine, bColumn := AsPos(s[j])
		if aLine == bLine {
			return aColumn < bColumn
		}
		return aLine < bLine
	})
}

// Err joins the errors into one, prefixing each with its position. Returns
// nil for an empty slice.
func (s Slice) Err() error {
	if len(s) == 0 {
		return nil
	}
	errs := make([]error, len(s))
	for i, err := range s {
		if line, column := AsPos(err); line > 0 {
			errs[i] = fmt.Errorf("%d:%d: %w", line, column, err)
		} else {
			errs[i] = err
		}
	}
	return errors.Join(errs...)
}
