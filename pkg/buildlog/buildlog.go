package buildlog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/iver-wharf/wharf-core/pkg/logger"
)

// Listener is the sink for user-visible build diagnostics. Everything written
// ends up in the build's log.
type Listener interface {
	// Println appends a line to the build log.
	Println(line string)
	// Error appends an error line to the build log, and returns a writer that
	// can be used to write further details, such as a stack trace.
	Error(msg string) io.Writer
}

// New creates a Listener that writes to w. Writes are serialized, so the
// same listener may be shared between goroutines.
func New(w io.Writer) Listener {
	return &writerListener{w: w}
}

type writerListener struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *writerListener) Println(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, line)
}

func (l *writerListener) Error(msg string) io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "ERROR: %s\n", msg)
	return lockedWriter{l}
}

type lockedWriter struct {
	l *writerListener
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.w.Write(p)
}

// NewLogged wraps a Listener so every line is also sent to the given logger,
// scoped with the build's ID.
func NewLogged(inner Listener, log logger.Logger, buildID string) Listener {
	return loggedListener{inner: inner, log: log, buildID: buildID}
}

type loggedListener struct {
	inner   Listener
	log     logger.Logger
	buildID string
}

func (l loggedListener) Println(line string) {
	l.inner.Println(line)
	l.log.Debug().
		WithString("build", l.buildID).
		Message(line)
}

func (l loggedListener) Error(msg string) io.Writer {
	w := l.inner.Error(msg)
	l.log.Warn().
		WithString("build", l.buildID).
		Message(msg)
	return w
}

// Lines is a Listener that keeps all written lines in memory. Mostly useful
// in tests.
type Lines struct {
	mu    sync.Mutex
	sb    strings.Builder
	lines []string
}

// Println implements the Listener interface.
func (l *Lines) Println(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	l.sb.WriteString(line)
	l.sb.WriteByte('\n')
}

// Error implements the Listener interface.
func (l *Lines) Error(msg string) io.Writer {
	l.Println("ERROR: " + msg)
	return linesWriter{l}
}

// Lines returns the lines written via Println and Error.
func (l *Lines) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// ErrorLines returns only the lines written via Error.
func (l *Lines) ErrorLines() []string {
	var errs []string
	for _, line := range l.Lines() {
		if strings.HasPrefix(line, "ERROR: ") {
			errs = append(errs, strings.TrimPrefix(line, "ERROR: "))
		}
	}
	return errs
}

// String returns everything written, including error details.
func (l *Lines) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sb.String()
}

type linesWriter struct {
	l *Lines
}

func (w linesWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.sb.Write(p)
}
