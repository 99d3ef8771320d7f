package manager

import (
	"fmt"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
)

// AddShortText adds a text-only badge in the default style.
func (m *Manager) AddShortText(text string) {
	m.active.AddAction(badge.NewShortText(text))
}

// AddStyledShortText adds a text-only badge with the given style.
func (m *Manager) AddStyledShortText(text, color, background, border, borderColor string) {
	m.active.AddAction(badge.NewStyledShortText(text, color, background, border, borderColor))
}

// AddBadge adds an icon badge.
func (m *Manager) AddBadge(icon, text string) {
	m.active.AddAction(badge.NewBadge(m.icons.Resolve(icon), text))
}

// AddBadgeWithLink adds an icon badge that links to the given URL.
func (m *Manager) AddBadgeWithLink(icon, text, link string) {
	m.active.AddAction(badge.NewBadgeWithLink(m.icons.Resolve(icon), text, link))
}

// AddInfoBadge adds a badge with the info icon.
func (m *Manager) AddInfoBadge(text string) {
	m.AddBadge(badge.IconInfo, text)
}

// AddWarningBadge adds a badge with the warning icon.
func (m *Manager) AddWarningBadge(text string) {
	m.AddBadge(badge.IconWarning, text)
}

// AddErrorBadge adds a badge with the error icon.
func (m *Manager) AddErrorBadge(text string) {
	m.AddBadge(badge.IconError, text)
}

// RemoveBadges removes all badges from the active build.
func (m *Manager) RemoveBadges() {
	m.active.RemoveActionsOfType(badge.ActionType)
}

// RemoveBadge removes the index:th badge of the active build. An index out
// of range is reported to the build log, and nothing is removed.
func (m *Manager) RemoveBadge(index int) {
	m.removeAction(badge.ActionType, "badge", index)
}

// CreateSummary adds an empty summary with the given icon to the active
// build. Text is added to it using Summary.AppendText.
func (m *Manager) CreateSummary(icon string) *badge.Summary {
	s := badge.NewSummary(m.icons.Resolve(icon).ValueOrZero())
	m.active.AddAction(s)
	return s
}

// RemoveSummaries removes all summaries from the active build.
func (m *Manager) RemoveSummaries() {
	m.active.RemoveActionsOfType(badge.SummaryActionType)
}

// RemoveSummary removes the index:th summary of the active build. An index
// out of range is reported to the build log, and nothing is removed.
func (m *Manager) RemoveSummary(index int) {
	m.removeAction(badge.SummaryActionType, "summary", index)
}

func (m *Manager) removeAction(actionType, noun string, index int) {
	count := m.active.CountActionsOfType(actionType)
	if index < 0 || index >= count {
		m.listener.Error(fmt.Sprintf("Invalid %s index: %d. Allowed values: 0 .. %d",
			noun, index, count-1))
		return
	}
	m.active.RemoveActionOfType(actionType, index)
}
