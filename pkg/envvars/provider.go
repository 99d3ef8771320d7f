package envvars

import (
	"errors"
	"fmt"

	"github.com/iver-wharf/wharf-postbuild/pkg/build"
)

// Provider captures the environment of a build.
type Provider interface {
	// Environment returns the build's environment variables. On error, the
	// returned map still holds every variable that could be captured.
	Environment(b *build.Build) (map[string]string, error)
}

// SnapshotProvider is a Provider that combines, in order of precedence, the
// build's own variables, YAML env files, and prefixed OS environment
// variables. Values may reference other variables using ${NAME}.
type SnapshotProvider struct {
	// Files are YAML env files, where earlier files take precedence.
	Files []string
	// OSPrefix is the prefix of OS environment variables to include. The
	// prefix is trimmed from the variable names.
	OSPrefix string
	// SkipOS disables the OS environment variables altogether.
	SkipOS bool
}

// Environment implements the Provider interface.
func (p SnapshotProvider) Environment(b *build.Build) (map[string]string, error) {
	var errs []error
	sources := SourceSlice{NewBuildSource(b)}
	for _, file := range p.Files {
		src, err := LoadYAMLFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sources = append(sources, src)
	}
	if !p.SkipOS {
		sources = append(sources, NewOSEnvSource(p.OSPrefix))
	}
	env := Flatten(sources)
	for k, v := range env {
		expanded, err := Expand(v, sources)
		if err != nil {
			errs = append(errs, fmt.Errorf("expand %s: %w", k, err))
			continue
		}
		env[k] = expanded
	}
	return env, errors.Join(errs...)
}
