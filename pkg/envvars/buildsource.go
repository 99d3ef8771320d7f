package envvars

import (
	"strconv"

	"github.com/iver-wharf/wharf-postbuild/pkg/build"
)

const buildSourceName = "build variables"

// NewBuildSource creates a Source with the variables describing a build, as
// well as all variables recorded on the build, such as matrix axis values.
//
// The recorded variables cannot override the describing ones.
func NewBuildSource(b *build.Build) Source {
	vars := make(map[string]string, len(b.Vars)+5)
	for k, v := range b.Vars {
		vars[k] = v
	}
	for _, axis := range b.Combination {
		vars[axis.Name] = axis.Value
	}
	number := strconv.FormatUint(uint64(b.Number), 10)
	vars["BUILD_NUMBER"] = number
	vars["BUILD_ID"] = number
	vars["JOB_NAME"] = b.Job
	vars["BUILD_TAG"] = "wharf-" + b.Job + "-" + number
	vars["BUILD_KIND"] = string(b.Kind)
	return SourceMap{Name: buildSourceName, Vars: vars}
}
