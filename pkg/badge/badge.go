package badge

import (
	"encoding/json"

	"gopkg.in/guregu/null.v4"
)

// Default style of short-text badges.
const (
	DefaultColor       = "#000000"
	DefaultBackground  = "#FFFF00"
	DefaultBorder      = "1px"
	DefaultBorderColor = "#C0C000"
)

// Icon file names of the preset badges.
const (
	IconInfo    = "info.gif"
	IconWarning = "warning.gif"
	IconError   = "error.gif"
)

// ActionType is the build action type name used for badges.
const ActionType = "badge"

// Badge is a small visual tag attached to a build. A badge is either an icon
// with a text, or a text-only badge drawn with its own colors and border.
//
// Badges are immutable after creation.
type Badge struct {
	iconPath    null.String
	text        string
	color       string
	background  string
	border      string
	borderColor string
	link        null.String
}

func newBadge(iconPath null.String, text string) *Badge {
	return &Badge{
		iconPath:    iconPath,
		text:        text,
		color:       DefaultColor,
		background:  DefaultBackground,
		border:      DefaultBorder,
		borderColor: DefaultBorderColor,
	}
}

// NewBadge creates an icon badge. The icon path should already be resolved,
// such as via IconResolver.Resolve. A null icon path creates a text-only badge.
func NewBadge(iconPath null.String, text string) *Badge {
	return newBadge(iconPath, text)
}

// NewBadgeWithLink creates an icon badge that links to the given URL.
func NewBadgeWithLink(iconPath null.String, text, link string) *Badge {
	b := newBadge(iconPath, text)
	b.link = null.StringFrom(link)
	return b
}

// NewShortText creates a text-only badge using the default yellow on black
// style.
func NewShortText(text string) *Badge {
	return newBadge(null.String{}, text)
}

// NewStyledShortText creates a text-only badge with the given style. The
// values are passed as-is to the view, so they can be any valid CSS values.
func NewStyledShortText(text, color, background, border, borderColor string) *Badge {
	b := newBadge(null.String{}, text)
	b.color = color
	b.background = background
	b.border = border
	b.borderColor = borderColor
	return b
}

// ActionType implements the build.Action interface.
func (b *Badge) ActionType() string { return ActionType }

// TextOnly returns true if the badge has no icon.
func (b *Badge) TextOnly() bool { return !b.iconPath.Valid }

// IconPath returns the resolved icon path, or null for text-only badges.
func (b *Badge) IconPath() null.String { return b.iconPath }

// Text returns the badge's display text.
func (b *Badge) Text() string { return b.text }

// Color returns the foreground color.
func (b *Badge) Color() string { return b.color }

// Background returns the background color.
func (b *Badge) Background() string { return b.background }

// Border returns the border width.
func (b *Badge) Border() string { return b.border }

// BorderColor returns the border color.
func (b *Badge) BorderColor() string { return b.borderColor }

// Link returns the hyperlink of the badge, if any.
func (b *Badge) Link() null.String { return b.link }

type badgeJSON struct {
	IconPath    null.String `json:"iconPath"`
	Text        string      `json:"text"`
	Color       string      `json:"color"`
	Background  string      `json:"background"`
	Border      string      `json:"border"`
	BorderColor string      `json:"borderColor"`
	Link        null.String `json:"link"`
}

// MarshalJSON implements json.Marshaler
func (b *Badge) MarshalJSON() ([]byte, error) {
	return json.Marshal(badgeJSON{
		IconPath:    b.iconPath,
		Text:        b.text,
		Color:       b.color,
		Background:  b.background,
		Border:      b.border,
		BorderColor: b.borderColor,
		Link:        b.link,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Badge) UnmarshalJSON(data []byte) error {
	var v badgeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = Badge{
		iconPath:    v.IconPath,
		text:        v.Text,
		color:       v.Color,
		background:  v.Background,
		border:      v.Border,
		borderColor: v.BorderColor,
		link:        v.Link,
	}
	return nil
}
