package envvars

import (
	"errors"
	"regexp"
	"strings"
)

// ErrRecursiveLoop is returned when variables reference each other in a loop.
var ErrRecursiveLoop = errors.New("recursive variable loop")

var varSyntaxPattern = regexp.MustCompile(`\${\s*([\w.-]*)\s*}`)

// Expand replaces all ${NAME} references in value with the variables found in
// the source. References to unknown variables are left as-is.
func Expand(value string, source Source) (string, error) {
	return expandRec(value, source, nil)
}

func expandRec(value string, source Source, used []string) (string, error) {
	if !strings.Contains(value, "${") {
		return value, nil
	}
	var firstErr error
	result := varSyntaxPattern.ReplaceAllStringFunc(value, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := varSyntaxPattern.FindStringSubmatch(match)[1]
		if containsString(used, name) {
			firstErr = ErrRecursiveLoop
			return match
		}
		v, ok := source.Lookup(name)
		if !ok {
			return match
		}
		expanded, err := expandRec(v.Value, source, append(used, name))
		if err != nil {
			firstErr = err
			return match
		}
		return expanded
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func containsString(slice []string, element string) bool {
	for _, v := range slice {
		if v == element {
			return true
		}
	}
	return false
}
