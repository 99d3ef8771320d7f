package flagtypes

import (
	"github.com/iver-wharf/wharf-postbuild/pkg/poststep"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var _ pflag.Value = new(Behavior)

// Behavior is a pflag.Value for overriding the script failure behavior of
// post-build steps.
type Behavior struct {
	Value   poststep.Behavior
	changed bool
}

// Changed reports whether the flag was set.
func (b *Behavior) Changed() bool {
	return b.changed
}

// String implements the pflag.Value and fmt.Stringer interfaces.
func (b *Behavior) String() string {
	return b.Value.String()
}

// Set implements the pflag.Value interface.
func (b *Behavior) Set(val string) error {
	parsed, err := poststep.ParseBehavior(val)
	if err != nil {
		return err
	}
	b.Value = parsed
	b.changed = true
	return nil
}

// Type implements the pflag.Value interface. Only used in help text.
func (b *Behavior) Type() string {
	return "behavior"
}

// CompleteBehavior returns shell completions for Behavior flags.
func CompleteBehavior(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"SUCCESS\tScript failures are only reported",
		"UNSTABLE\tScript failures mark the build as unstable",
		"FAILURE\tScript failures fail the build",
	}, cobra.ShellCompDirectiveNoFileComp
}
