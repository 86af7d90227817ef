package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTrajectoryStoreContract verifies that a TrajectoryStore implementation adheres to the
// interface contract. Every adapter runs it from its own tests.
func RunTrajectoryStoreContract(t *testing.T, store TrajectoryStore) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		traj := domain.NewTrajectory(id)
		traj.State["state.tirads_label"] = "TR4"
		traj.State["state.thyroid_nodules_quantity"] = 2
		traj.State["state.recommendation"] = nil
		traj.State[domain.PendingSlotsKey] = []string{"size"}
		traj.Executed = domain.History{"INTAKE", "TI-RADS"}
		traj.Steps = 3

		require.NoError(t, store.Save(ctx, traj))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "TR4", loaded.State["state.tirads_label"])
		assert.Equal(t, domain.History{"INTAKE", "TI-RADS"}, loaded.Executed)
		assert.Equal(t, 3, loaded.Steps)
		assert.Equal(t, []string{"size"}, loaded.State.PendingSlots())

		// explicit nulls stay present
		assert.True(t, loaded.State.Has("state.recommendation"))
		assert.Nil(t, loaded.State["state.recommendation"])

		// numbers may come back as json.Number, but never lose their value
		assert.Equal(t, "2", numberString(loaded.State["state.thyroid_nodules_quantity"]))
	})

	t.Run("Loaded copy is isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.State["mutated"] = true
		loaded.Executed = append(loaded.Executed, "X")

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, again.State.Has("mutated"))
		assert.Len(t, again.Executed, 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, domain.NewTrajectory(id2)))
		defer func() { _ = store.Delete(ctx, id2) }()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, id2)
		assert.IsIncreasing(t, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})
}

func numberString(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	default:
		b, _ := json.Marshal(n)
		return string(b)
	}
}
