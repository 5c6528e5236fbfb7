package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupCancelsOnFirstError(t *testing.T) {
	var g = NewGroup(context.Background())

	g.Queue("waits", func() error {
		<-g.Context().Done()
		return nil
	})
	g.Queue("fails", func() error { return errors.New("whoops") })

	require.Panics(t, func() { _ = g.Wait() })
	g.GoRun()
	require.Panics(t, func() { g.Queue("late", func() error { return nil }) })
	require.Panics(t, g.GoRun)

	require.EqualError(t, g.Wait(), "fails: whoops")
	require.Error(t, g.Context().Err())
}

func TestGroupCancel(t *testing.T) {
	var g = NewGroup(context.Background())
	g.Queue("waits", func() error {
		<-g.Context().Done()
		return nil
	})
	g.GoRun()
	g.Cancel()

	require.NoError(t, g.Wait())
}
