package execution_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/execution"
	internaltesting "github.com/teranos/cadence/internal/testing"
)

func TestSQLiteStore_FindByID_Absent(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := execution.NewSQLiteStore(database)

	got, err := store.FindByID(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_CreateThenFind(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := execution.NewSQLiteStore(database)
	ctx := context.Background()

	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	e := execution.Execution{
		ID:        "exec-1",
		Namespace: "prod",
		FlowID:    "billing",
		State:     execution.StateRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Create(ctx, e))

	got, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, execution.StateRunning, got.State)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestSQLiteStore_UpdateState(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := execution.NewSQLiteStore(database)
	ctx := context.Background()

	now := time.Now().UTC()
	e := execution.Execution{
		ID:        "exec-2",
		Namespace: "prod",
		FlowID:    "billing",
		State:     execution.StateRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Create(ctx, e))
	require.NoError(t, store.UpdateState(ctx, e.ID, execution.StateSucceeded))

	got, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, execution.StateSucceeded, got.State)
}

func TestSQLiteStore_UpdateState_NotFound(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := execution.NewSQLiteStore(database)

	err := store.UpdateState(context.Background(), "missing", execution.StateFailed)
	require.Error(t, err)
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, execution.StateRunning.Terminal())
	assert.True(t, execution.StateSucceeded.Terminal())
	assert.True(t, execution.StateFailed.Terminal())
	assert.True(t, execution.StateCancelled.Terminal())
}
