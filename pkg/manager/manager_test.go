package manager

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildlog"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

type fakeHost struct {
	builds  map[string]*build.Build
	logs    map[string]string
	logErr  error
	lookups int
}

func newFakeHost(builds ...*build.Build) *fakeHost {
	h := &fakeHost{builds: map[string]*build.Build{}, logs: map[string]string{}}
	for _, b := range builds {
		h.builds[b.ID()] = b
	}
	return h
}

func (h *fakeHost) BuildByNumber(job string, number uint) (*build.Build, error) {
	h.lookups++
	b, ok := h.builds[fmt.Sprintf("%s#%d", job, number)]
	if !ok {
		return nil, buildstore.ErrNotFound
	}
	return b, nil
}

func (h *fakeHost) OpenLog(b *build.Build) (io.ReadCloser, error) {
	if h.logErr != nil {
		return nil, h.logErr
	}
	return io.NopCloser(strings.NewReader(h.logs[b.ID()])), nil
}

type fakeEnv struct {
	env map[string]string
	err error
}

func (e fakeEnv) Environment(*build.Build) (map[string]string, error) {
	return e.env, e.err
}

func newTestManager(t *testing.T, b *build.Build, host Host, failure result.Result) (*Manager, *buildlog.Lines) {
	t.Helper()
	var lines buildlog.Lines
	m := New(b, Options{
		Host:                host,
		Env:                 fakeEnv{env: map[string]string{"GREETING": "hello"}},
		Icons:               badge.IconResolver{PluginName: "postbuild", HostResourcePath: "/static"},
		Listener:            &lines,
		ScriptFailureResult: failure,
	})
	return m, &lines
}

func TestManager_EnvSnapshotOfOriginal(t *testing.T) {
	first := build.New("job", 1, build.KindFreeStyle)
	second := build.New("job", 2, build.KindFreeStyle)
	m, _ := newTestManager(t, second, newFakeHost(first, second), result.Failure)

	require.True(t, m.SetBuildNumber(1))
	v, ok := m.EnvVariable("GREETING")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
	_, ok = m.EnvVariable("MISSING")
	assert.False(t, ok)
}

func TestManager_EnvCaptureFailureContinues(t *testing.T) {
	var lines buildlog.Lines
	b := build.New("job", 1, build.KindFreeStyle)
	m := New(b, Options{
		Env:      fakeEnv{env: map[string]string{"PARTIAL": "yes"}, err: errors.New("env file broken")},
		Listener: &lines,
	})
	assert.Equal(t, map[string]string{"PARTIAL": "yes"}, m.EnvVars())
	assert.Equal(t, []string{"Failed to capture environment."}, lines.ErrorLines())
	assert.Contains(t, lines.String(), "env file broken")
}

func TestManager_SetBuildNumberNotFound(t *testing.T) {
	b := build.New("job", 2, build.KindFreeStyle)
	m, _ := newTestManager(t, b, newFakeHost(b), result.Failure)

	assert.False(t, m.SetBuildNumber(7))
	assert.Same(t, b, m.Build())
	assert.Equal(t, []*build.Build{b}, m.Touched())
}

func TestManager_TouchedOncePerBuild(t *testing.T) {
	first := build.New("job", 1, build.KindFreeStyle)
	second := build.New("job", 2, build.KindFreeStyle)
	third := build.New("job", 3, build.KindFreeStyle)
	m, _ := newTestManager(t, third, newFakeHost(first, second, third), result.Failure)

	require.True(t, m.SetBuildNumber(1))
	require.True(t, m.SetBuildNumber(3))
	require.True(t, m.SetBuildNumber(1))
	require.True(t, m.SetBuildNumber(2))
	require.True(t, m.SetBuildNumber(1))

	assert.Same(t, first, m.Build())
	assert.Equal(t, []*build.Build{third, first, second}, m.Touched())
}

func TestManager_SetBuildNumberReusesTouchedBuild(t *testing.T) {
	original := build.New("job", 3, build.KindFreeStyle)
	stored := build.New("job", 3, build.KindFreeStyle)
	host := newFakeHost(stored)
	m, _ := newTestManager(t, original, host, result.Failure)

	require.True(t, m.SetBuildNumber(3))
	assert.Same(t, original, m.Build(), "must not load a second copy of a touched build")
	assert.Zero(t, host.lookups)
}

func TestManager_AddBadges(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	m, _ := newTestManager(t, b, nil, result.Failure)

	m.AddShortText("short")
	m.AddStyledShortText("styled", "black", "#FFFFFF", "2px", "#000000")
	m.AddBadge("/custom.png", "custom")
	m.AddBadgeWithLink("star.gif", "linked", "https://example.com")
	m.AddInfoBadge("info")
	m.AddWarningBadge("warning")
	m.AddErrorBadge("error")
	m.AddShortText("short")

	badges := b.Badges()
	require.Len(t, badges, 8)
	assert.True(t, badges[0].TextOnly())
	assert.Equal(t, badge.DefaultBackground, badges[0].Background())
	assert.Equal(t, "#FFFFFF", badges[1].Background())
	assert.Equal(t, null.StringFrom("/custom.png"), badges[2].IconPath())
	assert.Equal(t, null.StringFrom("https://example.com"), badges[3].Link())
	assert.Equal(t, null.StringFrom("/static/images/16x16/info.gif"), badges[4].IconPath())
	assert.Equal(t, null.StringFrom("/static/images/16x16/warning.gif"), badges[5].IconPath())
	assert.Equal(t, null.StringFrom("/static/images/16x16/error.gif"), badges[6].IconPath())
	assert.Equal(t, "short", badges[7].Text(), "duplicates are allowed")
}

func TestManager_PluginIcon(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	m := New(b, Options{
		Icons: badge.IconResolver{
			PluginName:       "postbuild",
			PluginResources:  fstest.MapFS{"images/star.gif": {}},
			HostResourcePath: "/static",
		},
	})
	m.AddBadge("star.gif", "star")
	m.AddWarningBadge("warning")
	badges := b.Badges()
	require.Len(t, badges, 2)
	assert.Equal(t, null.StringFrom("/plugin/postbuild/images/star.gif"), badges[0].IconPath())
	assert.Equal(t, null.StringFrom("/static/images/16x16/warning.gif"), badges[1].IconPath())
}

func TestManager_RemoveBadge(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	other := &build.RawAction{Type: "other"}
	b.AddAction(badge.NewShortText("a"))
	b.AddAction(other)
	b.AddAction(badge.NewShortText("b"))
	b.AddAction(badge.NewSummary("icon"))
	b.AddAction(badge.NewShortText("c"))
	m, lines := newTestManager(t, b, nil, result.Failure)

	m.RemoveBadge(1)

	assert.Empty(t, lines.ErrorLines())
	require.Len(t, b.Actions, 4)
	assert.Equal(t, "a", b.Actions[0].(*badge.Badge).Text())
	assert.Same(t, other, b.Actions[1])
	assert.Equal(t, badge.SummaryActionType, b.Actions[2].ActionType())
	assert.Equal(t, "c", b.Actions[3].(*badge.Badge).Text())
}

func TestManager_RemoveOutOfRange(t *testing.T) {
	var tests = []struct {
		name      string
		remove    func(m *Manager)
		wantError string
	}{
		{
			name:      "badge too large",
			remove:    func(m *Manager) { m.RemoveBadge(2) },
			wantError: "Invalid badge index: 2. Allowed values: 0 .. 1",
		},
		{
			name:      "badge negative",
			remove:    func(m *Manager) { m.RemoveBadge(-1) },
			wantError: "Invalid badge index: -1. Allowed values: 0 .. 1",
		},
		{
			name:      "summary too large",
			remove:    func(m *Manager) { m.RemoveSummary(1) },
			wantError: "Invalid summary index: 1. Allowed values: 0 .. 0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := build.New("job", 1, build.KindFreeStyle)
			b.AddAction(badge.NewShortText("a"))
			b.AddAction(badge.NewSummary("icon"))
			b.AddAction(badge.NewShortText("b"))
			before := append(build.Actions(nil), b.Actions...)
			m, lines := newTestManager(t, b, nil, result.Failure)

			tc.remove(m)

			assert.Equal(t, before, b.Actions)
			assert.Equal(t, []string{tc.wantError}, lines.ErrorLines())
		})
	}
}

func TestManager_RemoveAll(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	b.AddAction(badge.NewShortText("a"))
	b.AddAction(badge.NewSummary("icon"))
	b.AddAction(&build.RawAction{Type: "other"})
	b.AddAction(badge.NewShortText("b"))
	m, _ := newTestManager(t, b, nil, result.Failure)

	m.RemoveBadges()
	assert.Empty(t, b.Badges())
	assert.Len(t, b.Summaries(), 1)

	m.RemoveSummaries()
	assert.Empty(t, b.Summaries())
	require.Len(t, b.Actions, 1)
	assert.Equal(t, "other", b.Actions[0].ActionType())
}

func TestManager_CreateSummary(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	m, _ := newTestManager(t, b, nil, result.Failure)

	s := m.CreateSummary("star.gif")
	s.AppendText("<b>bold</b>", false)
	s.AppendText("<i>", true)

	require.Len(t, b.Summaries(), 1)
	assert.Same(t, s, b.Summaries()[0])
	assert.Equal(t, "/static/images/16x16/star.gif", s.IconPath())
	assert.Equal(t, "<b>bold</b>&lt;i&gt;", s.Text())
}

func TestManager_ResultSetters(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	m, _ := newTestManager(t, b, nil, result.Failure)

	m.BuildAborted()
	assert.Equal(t, result.Aborted, b.Result)
	m.BuildSuccess()
	assert.Equal(t, result.Success, b.Result, "explicit setters may improve the result")
	m.BuildNotBuilt()
	assert.Equal(t, result.NotBuilt, b.Result)
	m.BuildUnstable()
	assert.Equal(t, result.Unstable, b.Result)
	m.BuildFailure()
	assert.Equal(t, result.Failure, b.Result)
}

func TestManager_BuildScriptFailedResult(t *testing.T) {
	policies := []result.Result{result.Success, result.Unstable, result.Failure}
	originals := []result.Result{result.Success, result.Unstable, result.Failure, result.NotBuilt, result.Aborted}
	for _, policy := range policies {
		for _, original := range originals {
			t.Run(fmt.Sprintf("%s/%s", policy, original), func(t *testing.T) {
				b := build.New("job", 1, build.KindFreeStyle)
				b.Result = original
				m, _ := newTestManager(t, b, nil, policy)

				m.BuildScriptFailed(errors.New("boom"))

				assert.Equal(t, result.Worst(policy, original), b.Result)
			})
		}
	}
}

type backtraceError struct{}

func (backtraceError) Error() string     { return "short message" }
func (backtraceError) Backtrace() string { return "Traceback:\n  main.star:1: in <toplevel>\nError: <oops>" }

func TestManager_BuildScriptFailedDecoration(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		b := build.New("job", 1, build.KindFreeStyle)
		m, _ := newTestManager(t, b, nil, result.Failure)

		m.BuildScriptFailed(fmt.Errorf("exec: %w", backtraceError{}))

		require.Len(t, b.Summaries(), 1)
		s := b.Summaries()[0]
		assert.Equal(t, "/static/images/16x16/error.gif", s.IconPath())
		assert.Equal(t,
			`<b><font color="red">Jython script failed:</font></b><br><pre>`+
				"Traceback:\n  main.star:1: in &lt;toplevel&gt;\nError: &lt;oops&gt;"+
				`</pre>`,
			s.Text())

		require.Len(t, b.Badges(), 1)
		bdg := b.Badges()[0]
		assert.Equal(t, "Jython", bdg.Text())
		assert.True(t, bdg.TextOnly())
		assert.Equal(t, "black", bdg.Color())
		assert.Equal(t, "#FFE0E0", bdg.Background())
		assert.Equal(t, "1px", bdg.Border())
		assert.Equal(t, "#E08080", bdg.BorderColor())
	})

	t.Run("warning", func(t *testing.T) {
		b := build.New("job", 1, build.KindFreeStyle)
		m, _ := newTestManager(t, b, nil, result.Unstable)

		m.BuildScriptFailed(errors.New("a < b"))

		require.Len(t, b.Summaries(), 1)
		s := b.Summaries()[0]
		assert.Equal(t, "/static/images/16x16/warning.gif", s.IconPath())
		assert.Contains(t, s.Text(), "<pre>a &lt; b</pre>")

		require.Len(t, b.Badges(), 1)
		bdg := b.Badges()[0]
		assert.Equal(t, "#FFFFC0", bdg.Background())
		assert.Equal(t, "#C0C080", bdg.BorderColor())
	})
}

func TestManager_LogContains(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	host := newFakeHost(b)
	host.logs[b.ID()] = "Compiling...\r\nBUILD OK\nDone"
	m, _ := newTestManager(t, b, host, result.Failure)

	var tests = []struct {
		regex string
		want  bool
	}{
		{regex: "BUILD OK", want: true},
		{regex: "BUILD", want: false},
		{regex: "BUILD.*", want: true},
		{regex: "Compiling\\.\\.\\.", want: true},
		{regex: "Done|Nope", want: true},
		{regex: "one", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.regex, func(t *testing.T) {
			got, err := m.LogContains(tc.regex)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestManager_LogMatcherGroups(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	host := newFakeHost(b)
	host.logs[b.ID()] = "Tests run: 12, Failures: 3\nTests run: 1, Failures: 0\n"
	m, _ := newTestManager(t, b, host, result.Failure)

	match, err := m.LogMatcher(`Tests run: (\d+), Failures: (\d+)(, Skipped: \d+)?`)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Tests run: 12, Failures: 3", match.Line)
	assert.Equal(t, 3, match.GroupCount())
	assert.Equal(t, []null.String{null.StringFrom("12"), null.StringFrom("3"), {}}, match.Groups())

	whole, err := match.Group(0)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom(match.Line), whole)
	_, err = match.Group(4)
	assert.Error(t, err)

	noMatch, err := m.LogMatcher("nothing")
	require.NoError(t, err)
	assert.Nil(t, noMatch)
}

func TestManager_LogMatcherInvalidRegex(t *testing.T) {
	tests := []string{
		"(unclosed",
		"x)|(?:y",
		"a)(b",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			b := build.New("job", 1, build.KindFreeStyle)
			host := newFakeHost(b)
			host.logs[b.ID()] = "xabc\nb\n"
			m, lines := newTestManager(t, b, host, result.Failure)

			found, err := m.LogContains(expr)

			assert.Error(t, err)
			assert.False(t, found)
			assert.Equal(t, []string{"Jython Postbuild: Unable to compile regular expression '" + expr + "'"}, lines.Lines())
			assert.Equal(t, result.Success, b.Result, "the caller routes the error")
		})
	}
}

func TestManager_LogLineEndings(t *testing.T) {
	tests := []struct {
		name string
		log  string
	}{
		{name: "LF", log: "Compiling\nBUILD OK\nDone\n"},
		{name: "CRLF", log: "Compiling\r\nBUILD OK\r\nDone\r\n"},
		{name: "CR", log: "Compiling\rBUILD OK\rDone\r"},
		{name: "mixed", log: "Compiling\rBUILD OK\r\nDone"},
		{name: "CR at end", log: "Compiling\nBUILD OK\r"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := build.New("job", 1, build.KindFreeStyle)
			host := newFakeHost(b)
			host.logs[b.ID()] = tc.log
			m, _ := newTestManager(t, b, host, result.Failure)

			match, err := m.LogMatcher("BUILD OK")
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, "BUILD OK", match.Line)

			found, err := m.LogContains("Compiling.*BUILD OK")
			require.NoError(t, err)
			assert.False(t, found, "lines must not run together")
		})
	}
}

func TestScanLogLines_EmptyLines(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\r\rb\r\n\nc"))
	scanner.Split(scanLogLines)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "", "b", "", "c"}, got)
}

func TestManager_LogReadFailure(t *testing.T) {
	b := build.New("job", 1, build.KindFreeStyle)
	host := newFakeHost(b)
	host.logErr = errors.New("disk on fire")
	m, lines := newTestManager(t, b, host, result.Unstable)

	found, err := m.LogContains("BUILD OK")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, lines.ErrorLines(), 1)
	assert.Contains(t, lines.String(), "disk on fire")
	assert.Equal(t, result.Unstable, b.Result)
	require.Len(t, b.Badges(), 1)
	assert.Equal(t, "Jython", b.Badges()[0].Text())
}

func TestManager_BuildIsA(t *testing.T) {
	b := build.New("matrix", 1, build.KindMatrixBuild)
	m, _ := newTestManager(t, b, nil, result.Failure)
	assert.True(t, m.BuildIsA(build.KindMatrixBuild))
	assert.False(t, m.BuildIsA(build.KindMatrixRun))
	assert.False(t, m.BuildIsA(build.KindFreeStyle))
}
