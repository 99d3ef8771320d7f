package flagtypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.SliceValue = new(Vars)

// Vars is a repeatable flag of key=value pairs, such as:
//
//	--var BRANCH=main --var DEPLOY=false
//
// Later values override earlier ones for the same key.
type Vars struct {
	Map map[string]string
}

// String implements the pflag.Value and fmt.Stringer interfaces.
func (v *Vars) String() string {
	return "[" + strings.Join(v.GetSlice(), ",") + "]"
}

// Set implements the pflag.Value interface.
func (v *Vars) Set(val string) error {
	return v.Append(val)
}

// Type implements the pflag.Value interface. Only used in help text.
func (v *Vars) Type() string {
	return "key=value"
}

// Append implements the pflag.SliceValue interface.
func (v *Vars) Append(val string) error {
	key, value, ok := strings.Cut(val, "=")
	if !ok {
		return fmt.Errorf("missing delimiter \"=\" in %q", val)
	}
	if key == "" {
		return errors.New("empty key")
	}
	if v.Map == nil {
		v.Map = map[string]string{}
	}
	v.Map[key] = value
	return nil
}

// Replace implements the pflag.SliceValue interface.
func (v *Vars) Replace(vals []string) error {
	v.Map = nil
	for _, val := range vals {
		if err := v.Append(val); err != nil {
			return err
		}
	}
	return nil
}

// GetSlice implements the pflag.SliceValue interface. The pairs are sorted by
// key.
func (v *Vars) GetSlice() []string {
	out := make([]string, 0, len(v.Map))
	for k, val := range v.Map {
		out = append(out, k+"="+val)
	}
	sort.Strings(out)
	return out
}
