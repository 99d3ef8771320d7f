package poststep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"gopkg.in/yaml.v3"
)

// Behavior decides what result a build gets when its script fails.
type Behavior int

const (
	// BehaviorSuccess leaves the build result as-is on script failures.
	BehaviorSuccess Behavior = iota
	// BehaviorUnstable marks the build as unstable on script failures.
	BehaviorUnstable
	// BehaviorFailure marks the build as failed on script failures.
	BehaviorFailure
)

// Behaviors lists all valid behaviors, ordered by severity.
var Behaviors = []Behavior{BehaviorSuccess, BehaviorUnstable, BehaviorFailure}

// Result returns the result builds get downgraded to on script failures.
func (b Behavior) Result() result.Result {
	switch b {
	case BehaviorUnstable:
		return result.Unstable
	case BehaviorFailure:
		return result.Failure
	default:
		return result.Success
	}
}

// String implements the fmt.Stringer interface.
func (b Behavior) String() string {
	if !b.IsValid() {
		return fmt.Sprintf("Behavior(%d)", int(b))
	}
	return b.Result().String()
}

// IsValid reports whether the behavior is one of the defined values.
func (b Behavior) IsValid() bool {
	return b >= BehaviorSuccess && b <= BehaviorFailure
}

// ParseBehavior parses a behavior from either its number (0, 1, 2) or its
// result name, case-insensitive.
func ParseBehavior(s string) (Behavior, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		b := Behavior(n)
		if !b.IsValid() {
			return BehaviorSuccess, fmt.Errorf("invalid behavior: %d: must be 0, 1, or 2", n)
		}
		return b, nil
	}
	for _, b := range Behaviors {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return BehaviorSuccess, fmt.Errorf("invalid behavior: %q: must be one of SUCCESS, UNSTABLE, or FAILURE", s)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (b *Behavior) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return err
	}
	parsed, err := ParseBehavior(str)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (b Behavior) MarshalYAML() (any, error) {
	return b.String(), nil
}
