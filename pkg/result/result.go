package result

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result is an enum of the different outcomes of a build. The values are
// ordered by severity, so a higher value is a worse result.
type Result byte

const (
	// Success means the build completed without any problems.
	Success Result = iota
	// Unstable means the build completed, but some non-fatal errors were
	// reported, such as failing tests.
	Unstable
	// Failure means the build had a fatal error.
	Failure
	// NotBuilt means the build was not performed, such as when an earlier
	// stage in a multi-stage build failed.
	NotBuilt
	// Aborted means the build was interrupted before it could complete.
	Aborted
)

// String implements the fmt.Stringer interface.
func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case Unstable:
		return "UNSTABLE"
	case Failure:
		return "FAILURE"
	case NotBuilt:
		return "NOT_BUILT"
	case Aborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("Result(%d)", byte(r))
	}
}

// Parse parses a string as a result. This is the inverse of the
// Result.String() method, but is case-insensitive.
func Parse(s string) (Result, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS":
		return Success, nil
	case "UNSTABLE":
		return Unstable, nil
	case "FAILURE":
		return Failure, nil
	case "NOT_BUILT":
		return NotBuilt, nil
	case "ABORTED":
		return Aborted, nil
	default:
		return Success, fmt.Errorf("invalid result: %q", s)
	}
}

// IsWorseThan returns true if this result is more severe than the other.
func (r Result) IsWorseThan(other Result) bool {
	return r > other
}

// IsBetterThan returns true if this result is less severe than the other.
func (r Result) IsBetterThan(other Result) bool {
	return r < other
}

// Worst returns the most severe of the two results.
func Worst(a, b Result) Result {
	if a.IsWorseThan(b) {
		return a
	}
	return b
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Result) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalYAML implements yaml.Unmarshaler
func (r *Result) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (r Result) MarshalYAML() (any, error) {
	return r.String(), nil
}
