package buildlog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterListener(t *testing.T) {
	var sb strings.Builder
	l := New(&sb)
	l.Println("Started.")
	fmt.Fprintln(l.Error("Failed to evaluate script."), "trace line")
	assert.Equal(t, "Started.\nERROR: Failed to evaluate script.\ntrace line\n", sb.String())
}

func TestLines(t *testing.T) {
	var l Lines
	l.Println("one")
	fmt.Fprint(l.Error("two"), "details\n")
	l.Println("three")
	assert.Equal(t, []string{"one", "ERROR: two", "three"}, l.Lines())
	assert.Equal(t, []string{"two"}, l.ErrorLines())
	assert.Equal(t, "one\nERROR: two\ndetails\nthree\n", l.String())
}
