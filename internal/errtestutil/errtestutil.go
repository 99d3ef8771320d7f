// Package errtestutil holds test assertions for errutil.Slice values.
package errtestutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iver-wharf/wharf-postbuild/internal/errutil"
)

// RequireScopedErr fails the test unless some error in the slice both Is
// the given error and sits at the given key path, such as "axes/0". An
// empty scope matches errors at the document root. It returns the matching
// error for further position checks.
func RequireScopedErr(t *testing.T, errs errutil.Slice, scope string, err error) error {
	t.Helper()
	for _, e := range errs {
		if errors.Is(e, err) && errutil.AsScope(e) == scope {
			return e
		}
	}
	t.Fatalf("\nexpected error at %s: %q\nactual: (len=%d)\n%s",
		scopeName(scope), err, len(errs), describe(errs))
	return nil
}

// RequireNoErr fails the test if the error slice is not empty.
func RequireNoErr(t *testing.T, errs errutil.Slice) {
	t.Helper()
	if len(errs) > 0 {
		t.Fatalf("\nexpected no errors\nactual: (len=%d)\n%s", len(errs), describe(errs))
	}
}

func describe(errs errutil.Slice) string {
	var sb strings.Builder
	for i, err := range errs {
		fmt.Fprintf(&sb, "  %d. %s", i, scopeName(errutil.AsScope(err)))
		if line, column := errutil.AsPos(err); line > 0 {
			fmt.Fprintf(&sb, " (%d:%d)", line, column)
		}
		fmt.Fprintf(&sb, ": %s\n", err)
	}
	return sb.String()
}

func scopeName(scope string) string {
	if scope == "" {
		return "<root>"
	}
	return scope
}
