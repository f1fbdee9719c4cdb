package tools_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/keyforge-app/keyforge-api/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_WaitReturnsTaskError(t *testing.T) {
	boom := fmt.Errorf("task blew up")
	h := tools.Dispatch(context.Background(), "failing_task", func(ctx context.Context) error {
		return boom
	})
	assert.Equal(t, boom, h.Wait())
	assert.Equal(t, "failing_task", h.Name())
}

func TestDispatch_RunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	h := tools.Dispatch(context.Background(), "blocked_task", func(ctx context.Context) error {
		<-release
		return nil
	})

	select {
	case <-h.Done():
		t.Fatal("task finished before being released")
	default:
	}

	close(release)
	require.NoError(t, h.Wait())
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel never closed")
	}
}

func TestDispatch_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := tools.Dispatch(ctx, "cancelled_task", func(ctx context.Context) error {
		return ctx.Err()
	})
	assert.ErrorIs(t, h.Wait(), context.Canceled)
}
