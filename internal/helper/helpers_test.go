package helper_test

import (
	"context"
	"testing"

	"github.com/on-the-ground/fiber_ive_go/internal/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key string

func TestCast(t *testing.T) {
	v, err := helper.Cast[int](3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = helper.Cast[string](3)
	assert.ErrorContains(t, err, "unexpected type: int")

	_, err = helper.Cast[int](nil)
	assert.ErrorIs(t, err, helper.ErrMissingValue)
}

func TestContextValue(t *testing.T) {
	ctx := context.WithValue(context.Background(), key("k"), "ok")

	v, err := helper.ContextValue[string](ctx, key("k"))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = helper.ContextValue[string](ctx, key("other"))
	assert.ErrorIs(t, err, helper.ErrMissingValue)
	assert.ErrorContains(t, err, "context key other")

	assert.Equal(t, "ok", helper.MustContextValue[string](ctx, key("k")))
	assert.Panics(t, func() { helper.MustContextValue[int](ctx, key("k")) })
}
