package helper

import (
	"context"
	"errors"
	"fmt"
)

var ErrMissingValue = errors.New("missing value")

// Cast asserts v to T. A nil v is reported as ErrMissingValue rather than as
// a type mismatch.
func Cast[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, ErrMissingValue
	}
	val, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type: %T, want %T", v, zero)
	}
	return val, nil
}

// ContextValue reads key from ctx as a T.
func ContextValue[T any](ctx context.Context, key any) (T, error) {
	val, err := Cast[T](ctx.Value(key))
	if err != nil {
		return val, fmt.Errorf("context key %v: %w", key, err)
	}
	return val, nil
}

// MustContextValue is the panicking variant of ContextValue, for values whose
// absence is a programming error.
func MustContextValue[T any](ctx context.Context, key any) T {
	val, err := ContextValue[T](ctx, key)
	if err != nil {
		panic(err)
	}
	return val
}
