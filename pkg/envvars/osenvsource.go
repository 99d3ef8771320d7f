package envvars

import (
	"os"
	"strings"
)

const osEnvSourceName = "OS environment variables"

// NewOSEnvSource creates a new Source that uses your OS environment variables
// with a prefix as variables. The prefix is trimmed from the variable names.
//
// To use all environment variables, you can specify an empty string as prefix.
func NewOSEnvSource(prefix string) Source {
	return osEnvSource{prefix}
}

type osEnvSource struct {
	prefix string
}

func (s osEnvSource) Lookup(name string) (Var, bool) {
	val, ok := os.LookupEnv(s.prefix + name)
	if !ok {
		return Var{}, false
	}
	return Var{
		Key:    name,
		Value:  val,
		Source: osEnvSourceName,
	}, true
}

func (s osEnvSource) ListVars() []Var {
	var vars []Var
	for _, env := range os.Environ() {
		key, val, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		trimmedKey := strings.TrimPrefix(key, s.prefix)
		if len(trimmedKey) == len(key) && s.prefix != "" {
			// No prefix was trimmed. It didn't have the prefix
			continue
		}
		vars = append(vars, Var{
			Key:    trimmedKey,
			Value:  val,
			Source: osEnvSourceName,
		})
	}
	return vars
}
