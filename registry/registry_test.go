package registry_test

import (
	"testing"
	"time"

	"github.com/on-the-ground/fiber_ive_go/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	now := time.Now()
	parent := registry.Record{ID: "p", Name: "root", Status: registry.StatusRunning, StartedAt: now}
	child := registry.Record{ID: "c", Parent: "p", Status: registry.StatusRunning, StartedAt: now.Add(time.Millisecond)}

	ok, err := reg.Register(parent)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = reg.Register(child)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = reg.Register(parent)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate id")

	live, err := reg.Live()
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "p", live[0].ID)

	children, err := reg.Children("p")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "c", children[0].ID)

	ok, err = reg.SetStatus("p", registry.StatusDraining)
	require.NoError(t, err)
	require.True(t, ok)

	draining, err := reg.ByStatus(registry.StatusDraining)
	require.NoError(t, err)
	require.Len(t, draining, 1)
	assert.Equal(t, "root", draining[0].Name)

	rec, ok, err := reg.Get("c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, registry.StatusRunning, rec.Status)

	ok, err = reg.Remove("c")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reg.Remove("c")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.Get("c")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = reg.SetStatus("missing", registry.StatusDraining)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecord_Span(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := registry.Record{StartedAt: start}
	span := rec.Span(start.Add(90 * time.Second))
	assert.Equal(t, 90*time.Second, span.Duration())
	assert.Equal(t, start, span.Start())
}
