package build

import (
	"encoding/json"
	"testing"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildActionsJSON_keepsUnknownActions(t *testing.T) {
	b := New("my-job", 3, KindFreeStyle)
	b.Result = result.Unstable
	b.AddAction(badge.NewShortText("hello"))
	b.AddAction(&RawAction{Type: "testReport", Data: json.RawMessage(`{"failed":2}`)})
	s := badge.NewSummary("/error.gif")
	s.AppendText("<b>hi</b>", false)
	b.AddAction(s)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var got Build
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "my-job#3", got.ID())
	assert.Equal(t, result.Unstable, got.Result)
	require.Len(t, got.Actions, 3)
	require.Len(t, got.Badges(), 1)
	assert.Equal(t, "hello", got.Badges()[0].Text())
	raw, ok := got.Actions[1].(*RawAction)
	require.True(t, ok, "second action is raw")
	assert.Equal(t, "testReport", raw.Type)
	assert.JSONEq(t, `{"failed":2}`, string(raw.Data))
	require.Len(t, got.Summaries(), 1)
	assert.Equal(t, "<b>hi</b>", got.Summaries()[0].Text())
}

func TestRemoveActionOfType(t *testing.T) {
	b := New("job", 1, KindFreeStyle)
	other := &RawAction{Type: "other"}
	b.AddAction(badge.NewShortText("a"))
	b.AddAction(other)
	b.AddAction(badge.NewShortText("b"))
	b.AddAction(badge.NewShortText("c"))

	require.True(t, b.RemoveActionOfType(badge.ActionType, 1))
	assert.Equal(t, []string{"a", "c"}, badgeTexts(b))
	assert.Same(t, other, b.Actions[1])

	assert.False(t, b.RemoveActionOfType(badge.ActionType, 2))
	assert.False(t, b.RemoveActionOfType(badge.ActionType, -1))
	assert.Len(t, b.Actions, 3)
}

func TestRemoveActionsOfType(t *testing.T) {
	b := New("job", 1, KindFreeStyle)
	other := &RawAction{Type: "other"}
	b.AddAction(badge.NewShortText("a"))
	b.AddAction(other)
	b.AddAction(badge.NewSummary("/x.gif"))
	b.AddAction(badge.NewShortText("b"))

	assert.Equal(t, 2, b.RemoveActionsOfType(badge.ActionType))
	require.Len(t, b.Actions, 2)
	assert.Same(t, other, b.Actions[0])
	assert.Equal(t, 1, b.CountActionsOfType(badge.SummaryActionType))
}

func TestCombinations(t *testing.T) {
	got, err := Combinations([]Axis{
		{Name: "os", Values: []string{"linux", "windows"}},
		{Name: "arch", Values: []string{"amd64", "arm64"}},
	})
	require.NoError(t, err)
	var names []string
	for _, c := range got {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{
		"os=linux,arch=amd64",
		"os=linux,arch=arm64",
		"os=windows,arch=amd64",
		"os=windows,arch=arm64",
	}, names)
	arch, ok := got[1].Get("arch")
	assert.True(t, ok)
	assert.Equal(t, "arm64", arch)
}

func TestCombinations_invalid(t *testing.T) {
	var tests = []struct {
		name string
		axes []Axis
	}{
		{name: "no axes", axes: nil},
		{name: "no name", axes: []Axis{{Values: []string{"a"}}}},
		{name: "no values", axes: []Axis{{Name: "a"}}},
		{name: "duplicate", axes: []Axis{{Name: "a", Values: []string{"1"}}, {Name: "a", Values: []string{"2"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Combinations(tc.axes)
			assert.Error(t, err)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("matrixrun")
	require.NoError(t, err)
	assert.Equal(t, KindMatrixRun, k)
	_, err = ParseKind("pipeline")
	assert.Error(t, err)
}

func badgeTexts(b *Build) []string {
	var texts []string
	for _, bdg := range b.Badges() {
		texts = append(texts, bdg.Text())
	}
	return texts
}
