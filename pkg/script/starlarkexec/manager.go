package starlarkexec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/manager"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

type managerMethod = method[*manager.Manager]

// The methods scripts can call on the manager. This is everything a script
// can do to a build.
var managerMethods = map[string]managerMethod{
	"println":         managerPrintln,
	"getEnvVariable":  oneString("key", getEnvVariable),
	"getEnvVars":      noArgs(getEnvVars),
	"setBuildNumber":  oneInt("number", setBuildNumber),
	"getBuild":        noArgs(getBuild),
	"addShortText":    addShortText,
	"addBadge":        addBadge,
	"addInfoBadge":    oneString("text", addPreset((*manager.Manager).AddInfoBadge)),
	"addWarningBadge": oneString("text", addPreset((*manager.Manager).AddWarningBadge)),
	"addErrorBadge":   oneString("text", addPreset((*manager.Manager).AddErrorBadge)),
	"removeBadges":    noArgs(voidCall((*manager.Manager).RemoveBadges)),
	"removeBadge": oneInt("index", func(m *manager.Manager, i int) (starlark.Value, error) {
		m.RemoveBadge(i)
		return starlark.None, nil
	}),
	"createSummary":   oneString("icon", createSummary),
	"removeSummaries": noArgs(voidCall((*manager.Manager).RemoveSummaries)),
	"removeSummary": oneInt("index", func(m *manager.Manager, i int) (starlark.Value, error) {
		m.RemoveSummary(i)
		return starlark.None, nil
	}),
	"buildSuccess":  noArgs(voidCall((*manager.Manager).BuildSuccess)),
	"buildUnstable": noArgs(voidCall((*manager.Manager).BuildUnstable)),
	"buildFailure":  noArgs(voidCall((*manager.Manager).BuildFailure)),
	"buildAborted":  noArgs(voidCall((*manager.Manager).BuildAborted)),
	"buildNotBuilt": noArgs(voidCall((*manager.Manager).BuildNotBuilt)),
	"buildScriptFailed": oneString("message", func(m *manager.Manager, msg string) (starlark.Value, error) {
		m.BuildScriptFailed(errors.New(msg))
		return starlark.None, nil
	}),
	"logContains":   oneString("regex", logContains),
	"getLogMatcher": oneString("regex", getLogMatcher),
	"buildIsA":      oneString("kind", buildIsA),
}

func newManagerValue(m *manager.Manager) starlark.Value {
	return &object[*manager.Manager]{typeName: "manager", recv: m, methods: managerMethods}
}

func voidCall(f func(m *manager.Manager)) func(m *manager.Manager) (starlark.Value, error) {
	return func(m *manager.Manager) (starlark.Value, error) {
		f(m)
		return starlark.None, nil
	}
}

func addPreset(f func(m *manager.Manager, text string)) func(m *manager.Manager, text string) (starlark.Value, error) {
	return func(m *manager.Manager, text string) (starlark.Value, error) {
		f(m, text)
		return starlark.None, nil
	}
}

func managerPrintln(m *manager.Manager, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := starlark.AsString(v); ok {
		m.Println(s)
	} else {
		m.Println(v.String())
	}
	return starlark.None, nil
}

func getEnvVariable(m *manager.Manager, key string) (starlark.Value, error) {
	return stringOrNone(m.EnvVariable(key)), nil
}

func getEnvVars(m *manager.Manager) (starlark.Value, error) {
	env := m.EnvVars()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dict := starlark.NewDict(len(keys))
	for _, k := range keys {
		if err := dict.SetKey(starlark.String(k), starlark.String(env[k])); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func setBuildNumber(m *manager.Manager, number int) (starlark.Value, error) {
	if number < 0 {
		return starlark.False, nil
	}
	return starlark.Bool(m.SetBuildNumber(uint(number))), nil
}

func getBuild(m *manager.Manager) (starlark.Value, error) {
	b := m.Build()
	return starlarkstruct.FromStringDict(starlark.String("build"), starlark.StringDict{
		"job":         starlark.String(b.Job),
		"number":      starlark.MakeUint(b.Number),
		"id":          starlark.String(b.ID()),
		"kind":        starlark.String(b.Kind),
		"result":      starlark.String(b.Result.String()),
		"combination": starlark.String(b.Combination.String()),
	}), nil
}

func addShortText(m *manager.Manager, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text, color, background, border, borderColor string
	if err := starlark.UnpackArgs(name, args, kwargs,
		"text", &text,
		"color?", &color,
		"background?", &background,
		"border?", &border,
		"borderColor?", &borderColor,
	); err != nil {
		return nil, err
	}
	switch len(args) + len(kwargs) {
	case 1:
		m.AddShortText(text)
	case 5:
		m.AddStyledShortText(text, color, background, border, borderColor)
	default:
		return nil, fmt.Errorf("%s: got %d arguments, want 1 or 5", name, len(args)+len(kwargs))
	}
	return starlark.None, nil
}

func addBadge(m *manager.Manager, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var icon, text string
	var link starlark.Value = starlark.None
	if err := starlark.UnpackArgs(name, args, kwargs, "icon", &icon, "text", &text, "link?", &link); err != nil {
		return nil, err
	}
	if link == starlark.None {
		m.AddBadge(icon, text)
		return starlark.None, nil
	}
	s, ok := starlark.AsString(link)
	if !ok {
		return nil, fmt.Errorf("%s: for parameter link: got %s, want string", name, link.Type())
	}
	m.AddBadgeWithLink(icon, text, s)
	return starlark.None, nil
}

func createSummary(m *manager.Manager, icon string) (starlark.Value, error) {
	return newSummaryValue(m.CreateSummary(icon)), nil
}

func logContains(m *manager.Manager, regex string) (starlark.Value, error) {
	found, err := m.LogContains(regex)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(found), nil
}

func getLogMatcher(m *manager.Manager, regex string) (starlark.Value, error) {
	match, err := m.LogMatcher(regex)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return starlark.None, nil
	}
	return newMatcherValue(match), nil
}

func buildIsA(m *manager.Manager, kind string) (starlark.Value, error) {
	k, err := build.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(m.BuildIsA(k)), nil
}

var summaryMethods = map[string]method[*badge.Summary]{
	"appendText": func(s *badge.Summary, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var text string
		var escapeHTML bool
		if err := starlark.UnpackArgs(name, args, kwargs, "text", &text, "escapeHtml?", &escapeHTML); err != nil {
			return nil, err
		}
		s.AppendText(text, escapeHTML)
		return starlark.None, nil
	},
	"getText": noArgs(func(s *badge.Summary) (starlark.Value, error) {
		return starlark.String(s.Text()), nil
	}),
	"getIconPath": noArgs(func(s *badge.Summary) (starlark.Value, error) {
		return starlark.String(s.IconPath()), nil
	}),
}

func newSummaryValue(s *badge.Summary) starlark.Value {
	return &object[*badge.Summary]{typeName: "summary", recv: s, methods: summaryMethods}
}

var matcherMethods = map[string]method[*manager.LogMatch]{
	"group": func(match *manager.LogMatch, name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var i int
		if err := starlark.UnpackArgs(name, args, kwargs, "group?", &i); err != nil {
			return nil, err
		}
		g, err := match.Group(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return stringOrNone(g.String, g.Valid), nil
	},
	"groups": noArgs(func(match *manager.LogMatch) (starlark.Value, error) {
		groups := match.Groups()
		tuple := make(starlark.Tuple, len(groups))
		for i, g := range groups {
			tuple[i] = stringOrNone(g.String, g.Valid)
		}
		return tuple, nil
	}),
	"groupCount": noArgs(func(match *manager.LogMatch) (starlark.Value, error) {
		return starlark.MakeInt(match.GroupCount()), nil
	}),
	"matches": noArgs(func(*manager.LogMatch) (starlark.Value, error) {
		return starlark.True, nil
	}),
	"getLine": noArgs(func(match *manager.LogMatch) (starlark.Value, error) {
		return starlark.String(match.Line), nil
	}),
}

func newMatcherValue(match *manager.LogMatch) starlark.Value {
	return &object[*manager.LogMatch]{typeName: "matcher", recv: match, methods: matcherMethods}
}
