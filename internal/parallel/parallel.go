package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Func is a function declaration used in parallel runs.
type Func func(ctx context.Context) error

type task struct {
	name string
	f    Func
}

// Group is a list of functions to run in parallel.
type Group struct {
	tasks []task
	// Limit is the maximum number of functions running at the same time.
	// Zero or less means no limit.
	Limit int
}

// AddFunc adds a function to the group to later be used in the parallel call.
// The name is prepended to the error message, if any.
func (g *Group) AddFunc(name string, f Func) {
	g.tasks = append(g.tasks, task{name, f})
}

// Len returns the number of functions in the group.
func (g *Group) Len() int {
	return len(g.tasks)
}

// RunWaitAll runs all functions in separate goroutines and waits for every
// one of them to return, even if some of them fail. The resulting error
// joins the errors of all functions that failed, in the order they were
// added.
func (g *Group) RunWaitAll(ctx context.Context) error {
	errs := make([]error, len(g.tasks))
	var sem chan struct{}
	if g.Limit > 0 {
		sem = make(chan struct{}, g.Limit)
	}
	var wg sync.WaitGroup
	wg.Add(len(g.tasks))
	for i, t := range g.tasks {
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			if err := t.f(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", t.name, err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
