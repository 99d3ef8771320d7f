package jobrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/internal/parallel"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildlog"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/envvars"
	"github.com/iver-wharf/wharf-postbuild/pkg/poststep"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"gopkg.in/typ.v4/sync2"
)

var log = logger.NewScoped("JOBRUN")

// Publisher runs after a build's main work is done, such as a post-build
// step.
type Publisher interface {
	// Perform runs the publisher on the build. Returning false fails the
	// build.
	Perform(ctx context.Context, b *build.Build, listener buildlog.Listener) (bool, error)
}

// MatrixAggregatable is a Publisher that also wants to run once all child
// builds of a matrix build have finished.
type MatrixAggregatable interface {
	// CreateAggregator is called once per matrix build, before any child
	// build starts. Returns nil if the publisher has nothing to aggregate.
	CreateAggregator(parent *build.Build, listener buildlog.Listener) poststep.MatrixAggregator
}

// Runner runs jobs, storing their builds and logs in a build store.
type Runner struct {
	Store      buildstore.Store
	Publishers []Publisher
	// MaxParallel limits how many matrix children run at the same time.
	// Zero means no limit.
	MaxParallel int
	// Stdout, if set, receives a copy of every build log.
	Stdout io.Writer
}

// Run runs the job as a freestyle or matrix job, depending on if it has any
// axes.
func (r Runner) Run(ctx context.Context, def Definition) (*build.Build, error) {
	if def.IsMatrix() {
		parent, _, err := r.RunMatrix(ctx, def)
		return parent, err
	}
	return r.RunFreestyle(ctx, def)
}

// RunFreestyle runs a single build of the job.
func (r Runner) RunFreestyle(ctx context.Context, def Definition) (*build.Build, error) {
	number, err := r.Store.NextNumber(def.Job)
	if err != nil {
		return nil, fmt.Errorf("allocate build number: %w", err)
	}
	b := newBuild(def, def.Job, number, build.KindFreeStyle)
	b.Result = def.Result
	if err := r.runBuild(ctx, b, def.Log); err != nil {
		return b, err
	}
	return b, nil
}

// RunMatrix runs a matrix build of the job: one child build per axis
// combination, all running concurrently. Once every child has finished, the
// parent gets the worst result of its children and the aggregators of all
// publishers are fired. Cancelling the context reports every child still
// running to the parent log; the join still waits for them.
func (r Runner) RunMatrix(ctx context.Context, def Definition) (*build.Build, []*build.Build, error) {
	combinations, err := build.Combinations(def.Axes)
	if err != nil {
		return nil, nil, err
	}
	number, err := r.Store.NextNumber(def.Job)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate build number: %w", err)
	}
	parent := newBuild(def, def.Job, number, build.KindMatrixBuild)
	if err := r.Store.Save(parent); err != nil {
		return parent, nil, fmt.Errorf("save build %s: %w", parent, err)
	}
	listener, closeLog, err := r.openListener(parent)
	if err != nil {
		return parent, nil, err
	}
	defer closeLog()

	var aggregators []poststep.MatrixAggregator
	for _, p := range r.Publishers {
		if ma, ok := p.(MatrixAggregatable); ok {
			if agg := ma.CreateAggregator(parent, listener); agg != nil {
				aggregators = append(aggregators, agg)
			}
		}
	}

	children := make([]*build.Build, len(combinations))
	var inFlight sync2.Map[string, time.Time]
	group := parallel.Group{Limit: r.MaxParallel}
	for i, c := range combinations {
		child := newBuild(def, build.ChildJob(def.Job, c), number, build.KindMatrixRun)
		child.Combination = c
		child.Result = def.Result
		if res, ok := def.ChildResults[c.String()]; ok {
			child.Result = res
		}
		children[i] = child
		group.AddFunc(child.ID(), func(ctx context.Context) error {
			inFlight.Store(child.ID(), time.Now())
			defer inFlight.Delete(child.ID())
			listener.Println("Triggering " + c.String())
			childLog, err := envvars.Expand(def.Log, envvars.NewBuildSource(child))
			if err != nil {
				childLog = def.Log
			}
			err = r.runBuild(ctx, child, childLog)
			listener.Println(fmt.Sprintf("%s completed with result %s", c, child.Result))
			return err
		})
	}
	reported := make(chan struct{})
	stopReport := context.AfterFunc(ctx, func() {
		defer close(reported)
		inFlight.Range(func(id string, started time.Time) bool {
			listener.Println(fmt.Sprintf("Aborting %s, running for %s", id, time.Since(started).Round(time.Millisecond)))
			log.Warn().
				WithString("build", id).
				WithStringer("parent", parent).
				Message("Matrix build cancelled while child build was running.")
			return true
		})
	})
	runErr := group.RunWaitAll(ctx)
	if !stopReport() {
		<-reported
	}

	for _, child := range children {
		parent.Result = result.Worst(parent.Result, child.Result)
	}
	if err := r.Store.Save(parent); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save build %s: %w", parent, err))
	}

	for _, agg := range aggregators {
		passed, err := agg.EndBuild(ctx)
		if err != nil {
			runErr = errors.Join(runErr, err)
		}
		if !passed {
			parent.Result = result.Worst(parent.Result, result.Failure)
		}
	}
	listener.Println("Finished: " + parent.Result.String())
	if err := r.Store.Save(parent); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save build %s: %w", parent, err))
	}
	log.Info().
		WithStringer("build", parent).
		WithInt("children", len(children)).
		WithStringer("result", parent.Result).
		Message("Matrix build finished.")
	return parent, children, runErr
}

func newBuild(def Definition, job string, number uint, kind build.Kind) *build.Build {
	b := build.New(job, number, kind)
	for k, v := range def.Vars {
		b.Vars[k] = v
	}
	return b
}

func (r Runner) runBuild(ctx context.Context, b *build.Build, logText string) error {
	if err := r.Store.Save(b); err != nil {
		return fmt.Errorf("save build %s: %w", b, err)
	}
	listener, closeLog, err := r.openListener(b)
	if err != nil {
		return err
	}
	defer closeLog()
	for _, line := range splitLines(logText) {
		listener.Println(line)
	}

	var errs []error
	for _, p := range r.Publishers {
		passed, err := p.Perform(ctx, b, listener)
		if err != nil {
			errs = append(errs, err)
		}
		if !passed {
			b.Result = result.Worst(b.Result, result.Failure)
		}
	}
	listener.Println("Finished: " + b.Result.String())
	if err := r.Store.Save(b); err != nil {
		errs = append(errs, fmt.Errorf("save build %s: %w", b, err))
	}
	log.Debug().
		WithStringer("build", b).
		WithStringer("result", b.Result).
		Message("Build finished.")
	return errors.Join(errs...)
}

func (r Runner) openListener(b *build.Build) (buildlog.Listener, func(), error) {
	w, err := r.Store.AppendLog(b)
	if err != nil {
		return nil, nil, fmt.Errorf("open log of %s: %w", b, err)
	}
	var out io.Writer = w
	if r.Stdout != nil {
		out = io.MultiWriter(w, prefixWriter{prefix: "[" + b.ID() + "] ", w: r.Stdout})
	}
	listener := buildlog.NewLogged(buildlog.New(out), log, b.ID())
	return listener, func() {
		if err := w.Close(); err != nil {
			log.Warn().WithStringer("build", b).WithError(err).Message("Failed to close build log.")
		}
	}, nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type prefixWriter struct {
	prefix string
	w      io.Writer
}

func (p prefixWriter) Write(b []byte) (int, error) {
	lines := strings.SplitAfter(string(b), "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString(p.prefix)
		sb.WriteString(line)
	}
	if _, err := io.WriteString(p.w, sb.String()); err != nil {
		return 0, err
	}
	return len(b), nil
}
