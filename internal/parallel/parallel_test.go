package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWaitAll(t *testing.T) {
	var g Group
	var ran atomic.Int32
	errFoo := errors.New("foo failed")
	g.AddFunc("foo", func(context.Context) error {
		ran.Add(1)
		return errFoo
	})
	for i := 0; i < 5; i++ {
		g.AddFunc("ok", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	err := g.RunWaitAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errFoo)
	assert.Equal(t, "foo: foo failed", err.Error())
	assert.Equal(t, int32(6), ran.Load(), "failures must not stop the others")
}

func TestRunWaitAll_Limit(t *testing.T) {
	g := Group{Limit: 2}
	var running, maxRunning atomic.Int32
	block := make(chan struct{})
	for i := 0; i < 6; i++ {
		g.AddFunc("task", func(context.Context) error {
			n := running.Add(1)
			for {
				m := maxRunning.Load()
				if n <= m || maxRunning.CompareAndSwap(m, n) {
					break
				}
			}
			<-block
			running.Add(-1)
			return nil
		})
	}
	close(block)

	require.NoError(t, g.RunWaitAll(context.Background()))
	assert.LessOrEqual(t, maxRunning.Load(), int32(2))
	assert.Equal(t, 6, g.Len())
}
