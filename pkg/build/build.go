package build

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
)

// Kind is the type of a build. Scripts use it to tell matrix parents apart
// from their children.
type Kind string

const (
	// KindFreeStyle is a plain, single build.
	KindFreeStyle Kind = "FreeStyleBuild"
	// KindMatrixBuild is the parent build of a matrix job. Its work is
	// distributed over one MatrixRun per axis combination.
	KindMatrixBuild Kind = "MatrixBuild"
	// KindMatrixRun is a child build of a matrix job, for a single axis
	// combination.
	KindMatrixRun Kind = "MatrixRun"
)

// ParseKind parses a kind name, case-insensitive.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindFreeStyle, KindMatrixBuild, KindMatrixRun} {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid build kind: %q", s)
}

// Build is a single execution of a job, carrying its result, the variables
// it was run with, and an ordered list of attached actions.
type Build struct {
	Job         string            `json:"job"`
	Number      uint              `json:"number"`
	Kind        Kind              `json:"kind"`
	Result      result.Result     `json:"result"`
	StartedAt   time.Time         `json:"startedAt"`
	Vars        map[string]string `json:"vars,omitempty"`
	Combination Combination       `json:"combination,omitempty"`
	Actions     Actions           `json:"actions"`
}

// New creates a build with a successful result.
func New(job string, number uint, kind Kind) *Build {
	return &Build{
		Job:       job,
		Number:    number,
		Kind:      kind,
		Result:    result.Success,
		StartedAt: time.Now(),
		Vars:      map[string]string{},
	}
}

// ID returns the identity of the build, unique among all jobs.
func (b *Build) ID() string {
	return b.Job + "#" + strconv.FormatUint(uint64(b.Number), 10)
}

// String implements the fmt.Stringer interface.
func (b *Build) String() string {
	return b.ID()
}

// AddAction appends an action to the end of the build's action list.
func (b *Build) AddAction(a Action) {
	b.Actions = append(b.Actions, a)
}

// Badges returns all badges of the build, in order.
func (b *Build) Badges() []*badge.Badge {
	var badges []*badge.Badge
	for _, a := range b.Actions {
		if bdg, ok := a.(*badge.Badge); ok {
			badges = append(badges, bdg)
		}
	}
	return badges
}

// Summaries returns all summaries of the build, in order.
func (b *Build) Summaries() []*badge.Summary {
	var summaries []*badge.Summary
	for _, a := range b.Actions {
		if s, ok := a.(*badge.Summary); ok {
			summaries = append(summaries, s)
		}
	}
	return summaries
}

// RemoveActionsOfType removes all actions with the given type name and
// returns how many were removed. Other actions keep their relative order.
func (b *Build) RemoveActionsOfType(actionType string) int {
	kept := b.Actions[:0]
	for _, a := range b.Actions {
		if a.ActionType() != actionType {
			kept = append(kept, a)
		}
	}
	removed := len(b.Actions) - len(kept)
	for i := len(kept); i < len(b.Actions); i++ {
		b.Actions[i] = nil
	}
	b.Actions = kept
	return removed
}

// CountActionsOfType returns the number of actions with the given type name.
func (b *Build) CountActionsOfType(actionType string) int {
	var count int
	for _, a := range b.Actions {
		if a.ActionType() == actionType {
			count++
		}
	}
	return count
}

// RemoveActionOfType removes the index:th action with the given type name,
// where the index counts only actions of that type. Returns false if the
// index is out of range.
func (b *Build) RemoveActionOfType(actionType string, index int) bool {
	if index < 0 {
		return false
	}
	var seen int
	for i, a := range b.Actions {
		if a.ActionType() != actionType {
			continue
		}
		if seen == index {
			b.Actions = append(b.Actions[:i], b.Actions[i+1:]...)
			return true
		}
		seen++
	}
	return false
}
