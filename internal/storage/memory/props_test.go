package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/sceneitem-widget/internal/props"
)

func nextChange(t *testing.T, ch <-chan props.Change) props.Change {
	t.Helper()
	select {
	case change := <-ch:
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for props change")
	}
	return props.Change{}
}

func TestPropsStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewPropsStore()

	value, err := store.Get(ctx, "tile-1", props.SceneItem)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, "Scene1|CamA"))
	value, err = store.Get(ctx, "tile-1", props.SceneItem)
	require.NoError(t, err)
	assert.Equal(t, "Scene1|CamA", value)

	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, ""))
	value, _ = store.Get(ctx, "tile-1", props.SceneItem)
	assert.Empty(t, value)
}

func TestPropsStoreSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewPropsStore()
	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, "Scene1|CamA"))

	ch, err := store.Subscribe(ctx, "tile-1")
	require.NoError(t, err)

	initial := nextChange(t, ch)
	assert.True(t, initial.Initial)
	assert.Equal(t, "Scene1|CamA", initial.Value)

	// Writing the same value is not a change.
	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, "Scene1|CamA"))
	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, "Scene1|Mic"))

	change := nextChange(t, ch)
	assert.False(t, change.Initial)
	assert.Equal(t, "Scene1|Mic", change.Value)

	require.NoError(t, store.Set(ctx, "tile-1", props.SceneItem, ""))
	cleared := nextChange(t, ch)
	assert.Empty(t, cleared.Value)
}
