package execution_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/execution"
)

func TestQueue_EmitDeliversToSubscriber(t *testing.T) {
	q := execution.NewQueue()
	ch := q.Subscribe(1)

	e := execution.Execution{ID: "exec-1", Namespace: "prod", FlowID: "billing", State: execution.StateRunning}
	require.NoError(t, q.Emit(context.Background(), e))

	select {
	case got := <-ch:
		assert.Equal(t, e.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber delivery")
	}
}

func TestQueue_EmitDoesNotBlockOnFullSubscriber(t *testing.T) {
	q := execution.NewQueue()
	q.Subscribe(0) // unbuffered, nobody reads

	done := make(chan struct{})
	go func() {
		_ = q.Emit(context.Background(), execution.Execution{ID: "exec-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
}

func TestQueue_EmitAfterClose(t *testing.T) {
	q := execution.NewQueue()
	q.Close()

	err := q.Emit(context.Background(), execution.Execution{ID: "exec-1"})
	assert.Error(t, err)
}

func TestQueue_Unsubscribe(t *testing.T) {
	q := execution.NewQueue()
	ch := q.Subscribe(1)
	q.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")

	require.NoError(t, q.Emit(context.Background(), execution.Execution{ID: "exec-1"}))
}

func TestQueue_EmitCancelledContext(t *testing.T) {
	q := execution.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Emit(ctx, execution.Execution{ID: "exec-1"})
	assert.Error(t, err)
}
