package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShorthandHome(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want string
	}{
		{name: "inside home", path: "/home/root/builds/db", want: "~/builds/db"},
		{name: "home itself", path: "/home/root", want: "~"},
		{name: "sibling with same prefix", path: "/home/rooted/db", want: "/home/rooted/db"},
		{name: "outside home", path: "/var/lib/db", want: "/var/lib/db"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shorthandHome(tc.path, "/home/root"))
		})
	}
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/root/builds", expandHome("~/builds", "/home/root"))
	assert.Equal(t, "/home/root", expandHome("~", "/home/root"))

	got, err := ExpandHome("relative/~/path")
	assert.NoError(t, err)
	assert.Equal(t, "relative/~/path", got)
}
