// Package starlarkexec runs post-build scripts written in Starlark, a
// Python dialect.
//
// Scripts get the build manager bound to the global "manager", and the
// step's configuration bound to "self". The build kinds are predeclared as
// MatrixBuild, MatrixRun, and FreeStyleBuild, to be used with
// manager.buildIsA.
package starlarkexec

import (
	"context"
	"fmt"
	"sort"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/manager"
	"github.com/iver-wharf/wharf-postbuild/pkg/script"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

var log = logger.NewScoped("STARLARK")

// DefaultFileName is the file name scripts are reported as in backtraces.
const DefaultFileName = "postbuild.star"

// Executor is a script.Executor for Starlark scripts. The zero value is
// ready to use.
type Executor struct {
	// FileName is the name the script is reported as in backtraces.
	// Defaults to DefaultFileName.
	FileName string
	// MaxSteps aborts scripts after this many computation steps. Zero means
	// no limit.
	MaxSteps uint64
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Exec implements the script.Executor interface. Cancelling the context
// cancels the script at its next computation step.
func (e Executor) Exec(ctx context.Context, src string, bindings script.Bindings) error {
	predeclared, err := predeclare(bindings)
	if err != nil {
		return err
	}
	thread := &starlark.Thread{
		Name:  "postbuild",
		Print: printer(bindings),
	}
	if e.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.MaxSteps)
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	fileName := e.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	log.Debug().WithString("file", fileName).Message("Executing script.")
	_, err = starlark.ExecFileOptions(fileOptions, thread, fileName, src, predeclared)
	return err
}

func predeclare(bindings script.Bindings) (starlark.StringDict, error) {
	predeclared := starlark.StringDict{
		"struct":         starlark.NewBuiltin("struct", starlarkstruct.Make),
		"FreeStyleBuild": starlark.String(build.KindFreeStyle),
		"MatrixBuild":    starlark.String(build.KindMatrixBuild),
		"MatrixRun":      starlark.String(build.KindMatrixRun),
	}
	for name, v := range bindings {
		value, err := toValue(name, v)
		if err != nil {
			return nil, err
		}
		predeclared[name] = value
	}
	return predeclared, nil
}

// printer sends the output of the print builtin to the build log, or to the
// application log when there is no manager to write through.
func printer(bindings script.Bindings) func(*starlark.Thread, string) {
	if m, ok := bindings[script.BindingManager].(*manager.Manager); ok {
		return func(_ *starlark.Thread, msg string) {
			m.Println(msg)
		}
	}
	return func(_ *starlark.Thread, msg string) {
		log.Info().Message(msg)
	}
}

func toValue(name string, v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case *manager.Manager:
		return newManagerValue(v), nil
	case string:
		return starlark.String(v), nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case uint:
		return starlark.MakeUint(v), nil
	case fmt.Stringer:
		return starlark.String(v.String()), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(starlark.StringDict, len(v))
		for _, k := range keys {
			fv, err := toValue(name+"."+k, v[k])
			if err != nil {
				return nil, err
			}
			fields[k] = fv
		}
		return starlarkstruct.FromStringDict(starlark.String(name), fields), nil
	default:
		return nil, fmt.Errorf("binding %q: unsupported type %T", name, v)
	}
}
