package trigger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaltesting "github.com/teranos/cadence/internal/testing"
	"github.com/teranos/cadence/trigger"
)

func TestSQLiteStore_FindLast_Absent(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := trigger.NewSQLiteStore(database)

	uid := trigger.UID{Namespace: "prod", FlowID: "billing", TriggerID: "poll-invoices"}

	got, err := store.FindLast(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SaveThenFindLast_RoundTrip(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := trigger.NewSQLiteStore(database)

	execID := "exec-1"
	record := trigger.Record{
		Namespace:    "prod",
		FlowID:       "billing",
		FlowRevision: 3,
		TriggerID:    "poll-invoices",
		Date:         time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		ExecutionID:  &execID,
	}

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record))

	got, err := store.FindLast(ctx, record.UID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, record.Equivalent(*got), "expected %+v to be equivalent to %+v", record, got)
}

func TestSQLiteStore_Save_ReplacesInPlace(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := trigger.NewSQLiteStore(database)
	ctx := context.Background()

	uid := trigger.UID{Namespace: "prod", FlowID: "billing", TriggerID: "poll-invoices"}
	first := trigger.Record{
		Namespace:    uid.Namespace,
		FlowID:       uid.FlowID,
		TriggerID:    uid.TriggerID,
		FlowRevision: 1,
		Date:         time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, first))

	execID := "exec-2"
	second := first
	second.FlowRevision = 2
	second.Date = time.Date(2026, 7, 31, 13, 0, 0, 0, time.UTC)
	second.ExecutionID = &execID
	require.NoError(t, store.Save(ctx, second))

	got, err := store.FindLast(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, second.Equivalent(*got))
	assert.False(t, first.Equivalent(*got), "stale record must not survive a second save")
}

func TestSQLiteStore_FindLast_ScopedByFullUID(t *testing.T) {
	database := internaltesting.CreateTestDB(t)
	store := trigger.NewSQLiteStore(database)
	ctx := context.Background()

	a := trigger.Record{Namespace: "prod", FlowID: "billing", TriggerID: "poll-a", Date: time.Now().UTC()}
	b := trigger.Record{Namespace: "prod", FlowID: "billing", TriggerID: "poll-b", Date: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	got, err := store.FindLast(ctx, a.UID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "poll-a", got.TriggerID)
}
