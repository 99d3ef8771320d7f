package buildstore

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
)

var log = logger.NewScoped("STORE")

// ErrNotFound is returned when a build does not exist in the store.
var ErrNotFound = errors.New("build not found")

// Store persists build records and their logs.
type Store interface {
	// NextNumber allocates the next build number of a job. Numbers start at 1
	// and are never handed out twice.
	NextNumber(job string) (uint, error)
	// Save persists the build, including its result and actions.
	Save(b *build.Build) error
	// Load reads a build. Returns ErrNotFound if it does not exist.
	Load(job string, number uint) (*build.Build, error)
	// Numbers lists the build numbers of a job in ascending order.
	Numbers(job string) ([]uint, error)
	// OpenLog opens the build's log for reading.
	OpenLog(b *build.Build) (io.ReadCloser, error)
	// AppendLog opens the build's log for appending.
	AppendLog(b *build.Build) (io.WriteCloser, error)
	io.Closer
}

// ValidateJob returns an error if the job name cannot be stored. Job names
// are slash-separated paths, such as "my-job" or "my-job/axis1=value1".
func ValidateJob(job string) error {
	if job == "" {
		return errors.New("empty job name")
	}
	for _, segment := range strings.Split(job, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("invalid job name: %q", job)
		case buildsDirName:
			return fmt.Errorf("invalid job name: %q: %q is reserved", job, buildsDirName)
		}
		if strings.ContainsAny(segment, "\\\x00") {
			return fmt.Errorf("invalid job name: %q", job)
		}
	}
	return nil
}
