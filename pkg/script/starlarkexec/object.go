package starlarkexec

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

type method[T any] func(recv T, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// object exposes a Go value to scripts as a set of methods.
//
// Implements the starlark.HasAttrs interface.
type object[T any] struct {
	typeName string
	recv     T
	methods  map[string]method[T]
}

func (o *object[T]) Type() string          { return o.typeName }
func (o *object[T]) String() string        { return "<" + o.typeName + ">" }
func (o *object[T]) Freeze()               {}
func (o *object[T]) Truth() starlark.Bool  { return starlark.True }
func (o *object[T]) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", o.typeName) }

func (o *object[T]) Attr(name string) (starlark.Value, error) {
	m, ok := o.methods[name]
	if !ok {
		return nil, nil // (nil, nil) means "not found"
	}
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return m(o.recv, b.Name(), args, kwargs)
	}), nil
}

func (o *object[T]) AttrNames() []string {
	names := make([]string, 0, len(o.methods))
	for name := range o.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// noArgs wraps a method that takes no arguments.
func noArgs[T any](f func(recv T) (starlark.Value, error)) method[T] {
	return func(recv T, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(name, args, kwargs); err != nil {
			return nil, err
		}
		return f(recv)
	}
}

// oneString wraps a method that takes a single string argument.
func oneString[T any](param string, f func(recv T, s string) (starlark.Value, error)) method[T] {
	return func(recv T, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var s string
		if err := starlark.UnpackArgs(name, args, kwargs, param, &s); err != nil {
			return nil, err
		}
		return f(recv, s)
	}
}

// oneInt wraps a method that takes a single int argument.
func oneInt[T any](param string, f func(recv T, i int) (starlark.Value, error)) method[T] {
	return func(recv T, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var i int
		if err := starlark.UnpackArgs(name, args, kwargs, param, &i); err != nil {
			return nil, err
		}
		return f(recv, i)
	}
}

func stringOrNone(s string, ok bool) starlark.Value {
	if !ok {
		return starlark.None
	}
	return starlark.String(s)
}
