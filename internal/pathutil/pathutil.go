package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ShorthandHome replaces the home directory prefix of a path with "~", for
// shorter log messages.
//
//	Input:  "/home/jane/builds/job"
//	Output: "~/builds/job"
func ShorthandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return shorthandHome(path, home)
}

// ExpandHome replaces a leading "~" in a path with the home directory. Paths
// not starting with "~" are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return expandHome(path, home), nil
}

func shorthandHome(path, home string) string {
	if path == home {
		return "~"
	}
	rest, ok := strings.CutPrefix(path, home+string(filepath.Separator))
	if !ok {
		return path
	}
	return "~/" + filepath.ToSlash(rest)
}

func expandHome(path, home string) string {
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
