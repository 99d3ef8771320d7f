package badge

import (
	"encoding/json"
	"html"
	"strings"
)

// SummaryActionType is the build action type name used for summaries.
const SummaryActionType = "summary"

// Summary is a block of rich text shown on the build's page. The text is
// built incrementally using AppendText.
type Summary struct {
	iconPath string
	text     strings.Builder
}

// NewSummary creates an empty summary. The icon path should already be
// resolved, such as via IconResolver.Resolve.
func NewSummary(iconPath string) *Summary {
	return &Summary{iconPath: iconPath}
}

// ActionType implements the build.Action interface.
func (s *Summary) ActionType() string { return SummaryActionType }

// IconPath returns the resolved icon path of the summary.
func (s *Summary) IconPath() string { return s.iconPath }

// Text returns the accumulated HTML text.
func (s *Summary) Text() string { return s.text.String() }

// AppendText appends text to the summary. The text is HTML-escaped when
// escapeHTML is true, and is otherwise appended as raw HTML.
func (s *Summary) AppendText(text string, escapeHTML bool) {
	if escapeHTML {
		text = html.EscapeString(text)
	}
	s.text.WriteString(text)
}

type summaryJSON struct {
	IconPath string `json:"iconPath"`
	Text     string `json:"text"`
}

// MarshalJSON implements json.Marshaler
func (s *Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		IconPath: s.iconPath,
		Text:     s.text.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Summary) UnmarshalJSON(data []byte) error {
	var v summaryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.iconPath = v.IconPath
	s.text.Reset()
	s.text.WriteString(v.Text)
	return nil
}
