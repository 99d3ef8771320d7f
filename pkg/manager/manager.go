package manager

import (
	"errors"
	"fmt"
	"io"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildlog"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/envvars"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
)

var log = logger.NewScoped("MANAGER")

// Host gives the manager access to other builds and their logs.
type Host interface {
	// BuildByNumber looks up a build of a job. Returns buildstore.ErrNotFound
	// if there is no such build.
	BuildByNumber(job string, number uint) (*build.Build, error)
	// OpenLog opens the log of a build for reading.
	OpenLog(b *build.Build) (io.ReadCloser, error)
}

// StoreHost is a Host that reads builds and logs from a build store.
type StoreHost struct {
	Store buildstore.Store
}

// BuildByNumber implements the Host interface.
func (h StoreHost) BuildByNumber(job string, number uint) (*build.Build, error) {
	return h.Store.Load(job, number)
}

// OpenLog implements the Host interface.
func (h StoreHost) OpenLog(b *build.Build) (io.ReadCloser, error) {
	return h.Store.OpenLog(b)
}

// Options holds the collaborators of a Manager.
type Options struct {
	Host     Host
	Env      envvars.Provider
	Icons    badge.IconResolver
	Listener buildlog.Listener
	// ScriptFailureResult is the result a build gets downgraded to when its
	// script fails.
	ScriptFailureResult result.Result
}

// Manager is the handle a post-build script uses to inspect and modify
// builds. It acts on a single active build at a time, starting with the
// build it was created for, and remembers every build it has acted on so
// they can all be saved once the script is done.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	original *build.Build
	active   *build.Build
	touched  []*build.Build
	env      map[string]string

	host                Host
	icons               badge.IconResolver
	listener            buildlog.Listener
	scriptFailureResult result.Result
}

// New creates a manager for the given build. The build's environment is
// captured once, here. Failing to capture it is reported to the listener
// and the manager continues with whatever could be captured.
func New(b *build.Build, opts Options) *Manager {
	m := &Manager{
		original:            b,
		host:                opts.Host,
		icons:               opts.Icons,
		listener:            opts.Listener,
		scriptFailureResult: opts.ScriptFailureResult,
	}
	m.setBuild(b)
	if m.listener == nil {
		m.listener = buildlog.New(io.Discard)
	}
	if opts.Env != nil {
		env, err := opts.Env.Environment(b)
		if err != nil {
			log.Warn().
				WithStringer("build", b).
				WithError(err).
				Message("Failed to capture environment.")
			fmt.Fprintln(m.listener.Error("Failed to capture environment."), err)
		}
		m.env = env
	}
	if m.env == nil {
		m.env = map[string]string{}
	}
	return m
}

// Build returns the active build.
func (m *Manager) Build() *build.Build {
	return m.active
}

// Original returns the build the manager was created for.
func (m *Manager) Original() *build.Build {
	return m.original
}

// Touched returns every build that has been active, in the order they were
// first activated. Each build occurs only once.
func (m *Manager) Touched() []*build.Build {
	return append([]*build.Build(nil), m.touched...)
}

// ScriptFailureResult returns the result that script failures downgrade the
// active build to.
func (m *Manager) ScriptFailureResult() result.Result {
	return m.scriptFailureResult
}

// Listener returns the build log listener.
func (m *Manager) Listener() buildlog.Listener {
	return m.listener
}

func (m *Manager) setBuild(b *build.Build) {
	if b == nil {
		return
	}
	for _, t := range m.touched {
		if t.ID() == b.ID() {
			m.active = t
			return
		}
	}
	m.active = b
	m.touched = append(m.touched, b)
}

// SetBuildNumber makes another build of the original build's job the
// active build. Returns false, leaving the active build unchanged, if there
// is no such build.
func (m *Manager) SetBuildNumber(number uint) bool {
	job := m.original.Job
	for _, t := range m.touched {
		if t.Job == job && t.Number == number {
			m.active = t
			return true
		}
	}
	if m.host == nil {
		return false
	}
	b, err := m.host.BuildByNumber(job, number)
	if err != nil {
		if !errors.Is(err, buildstore.ErrNotFound) {
			log.Warn().
				WithString("job", job).
				WithInt("number", int(number)).
				WithError(err).
				Message("Failed to look up build.")
		}
		return false
	}
	m.setBuild(b)
	log.Debug().
		WithStringer("build", b).
		Message("Switched active build.")
	return true
}

// EnvVariable returns a variable from the original build's environment.
func (m *Manager) EnvVariable(key string) (string, bool) {
	v, ok := m.env[key]
	return v, ok
}

// EnvVars returns a copy of the original build's environment.
func (m *Manager) EnvVars() map[string]string {
	env := make(map[string]string, len(m.env))
	for k, v := range m.env {
		env[k] = v
	}
	return env
}

// Println writes a line to the build log.
func (m *Manager) Println(line string) {
	m.listener.Println(line)
}

// BuildIsA reports whether the active build is of the given kind.
func (m *Manager) BuildIsA(kind build.Kind) bool {
	return m.active.Kind == kind
}

// BuildSuccess sets the active build's result to SUCCESS.
func (m *Manager) BuildSuccess() { m.active.Result = result.Success }

// BuildUnstable sets the active build's result to UNSTABLE.
func (m *Manager) BuildUnstable() { m.active.Result = result.Unstable }

// BuildFailure sets the active build's result to FAILURE.
func (m *Manager) BuildFailure() { m.active.Result = result.Failure }

// BuildAborted sets the active build's result to ABORTED.
func (m *Manager) BuildAborted() { m.active.Result = result.Aborted }

// BuildNotBuilt sets the active build's result to NOT_BUILT.
func (m *Manager) BuildNotBuilt() { m.active.Result = result.NotBuilt }
