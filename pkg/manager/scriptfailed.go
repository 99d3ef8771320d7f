package manager

import (
	"errors"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
)

// ScriptFailedBadgeText is the text of the badge added to builds whose
// script failed.
const ScriptFailedBadgeText = "Jython"

const (
	scriptFailedPrefix = `<b><font color="red">Jython script failed:</font></b><br><pre>`
	scriptFailedSuffix = `</pre>`
)

type backtracer interface {
	Backtrace() string
}

// Trace returns the text shown for a failed script: the script's backtrace
// if the error carries one, otherwise the error message.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	var bt backtracer
	if errors.As(err, &bt) {
		return bt.Backtrace()
	}
	return err.Error()
}

// BuildScriptFailed decorates the active build with a summary holding the
// error's trace and a "Jython" badge. The active build's result is then
// downgraded to the script failure result, unless it already is as bad or
// worse.
func (m *Manager) BuildScriptFailed(err error) {
	isError := m.scriptFailureResult.IsWorseThan(result.Unstable)
	icon, background, borderColor := badge.IconWarning, "#FFFFC0", "#C0C080"
	if isError {
		icon, background, borderColor = badge.IconError, "#FFE0E0", "#E08080"
	}

	summary := m.CreateSummary(icon)
	summary.AppendText(scriptFailedPrefix, false)
	summary.AppendText(Trace(err), true)
	summary.AppendText(scriptFailedSuffix, false)
	m.AddStyledShortText(ScriptFailedBadgeText, "black", background, "1px", borderColor)

	if m.active.Result.IsBetterThan(m.scriptFailureResult) {
		m.active.Result = m.scriptFailureResult
	}
	log.Info().
		WithStringer("build", m.active).
		WithStringer("result", m.active.Result).
		Message("Script failed.")
}
