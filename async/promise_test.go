package async

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ExamplePromise_Wait() {
	var p = NewPromise()

	go func() {
		// Do async work.
		time.Sleep(10 * time.Millisecond)
		fmt.Println("Async routine completes.")
		p.Resolve()
	}()

	fmt.Println("Pre-wait logic runs.")
	p.Wait()
	fmt.Println("Post-wait logic runs.")

	// Output:
	// Pre-wait logic runs.
	// Async routine completes.
	// Post-wait logic runs.
}

func TestPromiseResolved(t *testing.T) {
	var p = NewPromise()
	require.False(t, p.Resolved())

	p.Resolve()
	require.True(t, p.Resolved())
	require.NoError(t, p.WaitContext(context.Background()))
}

func TestPromiseWaitContextCancelled(t *testing.T) {
	var p = NewPromise()
	var ctx, cancel = context.WithCancel(context.Background())
	cancel()

	require.Equal(t, context.Canceled, p.WaitContext(ctx))
	require.False(t, p.Resolved())
}
