package manager

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/guregu/null.v4"
)

// LogMatch is the first line of a build log that matched a regular
// expression, along with its capture groups.
type LogMatch struct {
	// Line is the whole matching line.
	Line    string
	indices []int
}

// GroupCount returns the number of capture groups in the expression.
func (m *LogMatch) GroupCount() int {
	return len(m.indices)/2 - 1
}

// Group returns capture group i, where group 0 is the whole line. A group
// that did not take part in the match is null. Returns an error if there
// is no such group.
func (m *LogMatch) Group(i int) (null.String, error) {
	if i < 0 || i > m.GroupCount() {
		return null.String{}, fmt.Errorf("no group %d, expression has %d groups", i, m.GroupCount())
	}
	start, end := m.indices[2*i], m.indices[2*i+1]
	if start < 0 {
		return null.String{}, nil
	}
	return null.StringFrom(m.Line[start:end]), nil
}

// Groups returns all capture groups, excluding the whole line.
func (m *LogMatch) Groups() []null.String {
	groups := make([]null.String, m.GroupCount())
	for i := range groups {
		groups[i], _ = m.Group(i + 1)
	}
	return groups
}

// LogContains reports whether any line of the active build's log matches
// the regular expression as a whole.
//
// An invalid expression is reported to the build log and returned as an
// error.
func (m *Manager) LogContains(expr string) (bool, error) {
	match, err := m.LogMatcher(expr)
	return match != nil, err
}

// LogMatcher returns the first line of the active build's log that matches
// the regular expression as a whole, or nil if no line does.
//
// An invalid expression is reported to the build log and returned as an
// error. Failing to read the log is reported to the build log and marks
// the script as failed, but is not returned as an error.
func (m *Manager) LogMatcher(expr string) (*LogMatch, error) {
	log.Debug().
		WithStringer("build", m.active).
		WithString("regex", expr).
		Message("Searching log.")
	re, err := compileWholeLine(expr)
	if err != nil {
		m.listener.Println(fmt.Sprintf("Jython Postbuild: Unable to compile regular expression '%s'", expr))
		return nil, fmt.Errorf("compile regular expression %q: %w", expr, err)
	}
	match, err := m.searchLog(re)
	if err != nil {
		w := m.listener.Error(fmt.Sprintf("Jython Postbuild: getMatcher(%q, %q) failed.", m.active.ID(), expr))
		fmt.Fprintln(w, err)
		m.BuildScriptFailed(err)
		return nil, nil
	}
	return match, nil
}

// compileWholeLine compiles the expression so it only matches entire lines.
// The expression must be valid on its own before it gets anchored.
func compileWholeLine(expr string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(expr); err != nil {
		return nil, err
	}
	return regexp.Compile(`^(?:` + expr + `)$`)
}

func (m *Manager) searchLog(re *regexp.Regexp) (*LogMatch, error) {
	if m.host == nil {
		return nil, errors.New("no host to read logs from")
	}
	r, err := m.host.OpenLog(m.active)
	if err != nil {
		return nil, fmt.Errorf("open log of %s: %w", m.active, err)
	}
	defer r.Close()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineSize)
	scanner.Split(scanLogLines)
	for scanner.Scan() {
		line := scanner.Text()
		if indices := re.FindStringSubmatchIndex(line); indices != nil {
			return &LogMatch{Line: line, indices: indices}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log of %s: %w", m.active, err)
	}
	return nil, nil
}

const maxLogLineSize = 16 * 1024 * 1024

// scanLogLines is a bufio.SplitFunc that ends lines on "\n", "\r\n" or a
// lone "\r".
func scanLogLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Need one more byte to tell "\r" from "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
