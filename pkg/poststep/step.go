package poststep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildlog"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/envvars"
	"github.com/iver-wharf/wharf-postbuild/pkg/manager"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/iver-wharf/wharf-postbuild/pkg/script"
)

var log = logger.NewScoped("POSTSTEP")

// Store is where the step looks up builds and saves the builds its script
// has touched.
type Store interface {
	manager.Host
	// Save persists the build.
	Save(b *build.Build) error
}

// NewStore creates a Store backed by a build store.
func NewStore(s buildstore.Store) Store {
	return buildStore{StoreHost: manager.StoreHost{Store: s}}
}

type buildStore struct {
	manager.StoreHost
}

func (s buildStore) Save(b *build.Build) error {
	return s.Store.Save(b)
}

// Deps holds the collaborators of a Step.
type Deps struct {
	Executor   script.Executor
	Store      Store
	Env        envvars.Provider
	Icons      badge.IconResolver
	Authorizer Authorizer
}

// Step runs a post-build script on builds.
type Step struct {
	cfg  Config
	deps Deps
}

// NewStep creates a post-build step. The config is copied, and changes to
// it after this call have no effect on the step.
func NewStep(cfg Config, deps Deps) (*Step, error) {
	if !cfg.Behavior.IsValid() {
		return nil, fmt.Errorf("invalid behavior: %d", int(cfg.Behavior))
	}
	if deps.Executor == nil {
		return nil, errors.New("missing script executor")
	}
	if deps.Store == nil {
		return nil, errors.New("missing build store")
	}
	if deps.Authorizer == nil {
		deps.Authorizer = AllowAll
	}
	cfg.upgrade()
	return &Step{cfg: cfg, deps: deps}, nil
}

// Config returns the step's configuration.
func (s *Step) Config() Config {
	return s.cfg
}

// Perform runs the script on the build. Script failures are not returned as
// errors, but decorate the build and downgrade its result according to the
// configured behavior. All builds the script touched are saved, even if the
// script failed.
//
// Returns true if the build's final result is better than FAILURE. Errors
// are only returned if the step was not allowed to run, or if saving any
// build failed.
func (s *Step) Perform(ctx context.Context, b *build.Build, listener buildlog.Listener) (bool, error) {
	if err := s.deps.Authorizer.CheckPermission(ctx, b); err != nil {
		return false, err
	}
	if listener == nil {
		listener = buildlog.New(io.Discard)
	}
	start := time.Now()
	log.Debug().
		WithStringer("build", b).
		WithStringer("behavior", s.cfg.Behavior).
		Message("Performing post-build step.")

	m := manager.New(b, manager.Options{
		Host:                s.deps.Store,
		Env:                 s.deps.Env,
		Icons:               s.deps.Icons,
		Listener:            listener,
		ScriptFailureResult: s.cfg.Behavior.Result(),
	})
	err := s.deps.Executor.Exec(ctx, s.cfg.Script, script.Bindings{
		script.BindingManager: m,
		script.BindingSelf:    s.cfg.ScriptAttrs(),
	})
	if err != nil {
		fmt.Fprintln(listener.Error("Failed to evaluate script."), manager.Trace(err))
		m.BuildScriptFailed(err)
	}

	var errs []error
	for _, touched := range m.Touched() {
		if err := s.deps.Store.Save(touched); err != nil {
			errs = append(errs, fmt.Errorf("save build %s: %w", touched, err))
		}
	}
	passed := b.Result.IsBetterThan(result.Failure)
	log.Info().
		WithStringer("build", b).
		WithStringer("result", b.Result).
		WithBool("passed", passed).
		WithInt("saved", len(m.Touched())-len(errs)).
		WithDuration("dur", time.Since(start)).
		Message("Post-build step done.")
	return passed, errors.Join(errs...)
}

// MatrixAggregator is notified when all child builds of a matrix build have
// finished.
type MatrixAggregator interface {
	// EndBuild is called once, after every child build has finished.
	EndBuild(ctx context.Context) (bool, error)
}

// CreateAggregator returns an aggregator that runs the step on the matrix
// parent build, or nil if the step is not configured to run for matrix
// parents.
func (s *Step) CreateAggregator(parent *build.Build, listener buildlog.Listener) MatrixAggregator {
	if !s.cfg.RunForMatrixParent {
		return nil
	}
	return &aggregator{step: s, parent: parent, listener: listener}
}

type aggregator struct {
	step     *Step
	parent   *build.Build
	listener buildlog.Listener
}

func (a *aggregator) EndBuild(ctx context.Context) (bool, error) {
	return a.step.Perform(ctx, a.parent, a.listener)
}
