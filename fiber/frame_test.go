package fiber

import (
	"errors"
	"testing"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_LIFO(t *testing.T) {
	var s stack
	require.True(t, s.empty())

	for i := 0; i < 3; i++ {
		f := acquireFrame(mapFrame)
		n := i
		f.f = func(any) any { return n }
		s.push(f)
	}
	assert.Equal(t, 3, s.depth)

	for want := 2; want >= 0; want-- {
		f := s.pop()
		require.NotNil(t, f)
		assert.Equal(t, want, f.f(nil))
		releaseFrame(f)
	}
	assert.Nil(t, s.pop())
	assert.Zero(t, s.depth)
}

func TestReleaseFrame_ClearsReferences(t *testing.T) {
	f := acquireFrame(foldFrame)
	f.k = func(any) instr { return nil }
	f.next = &frame{}
	releaseFrame(f)
	assert.Equal(t, frame{}, *f)
}

func TestDriver_StacksBalancedAfterFailure(t *testing.T) {
	rt := NewRuntime(WithScheduler(scheduler.NewManual()))
	errBoom := errors.New("boom")

	prog := CatchAll(
		Provide("env", Uninterruptible(Provide("inner", Interruptible(Fail[int](errBoom))))),
		func(error) Effect[int] { return Succeed(1) },
	)
	d := rt.newDriver("", cause.NoFiber, nil)
	d.runInline(prog.node())

	exit, ok := d.poll()
	require.True(t, ok)
	assert.True(t, exit.IsDone())
	assert.Empty(t, d.regions)
	assert.Empty(t, d.envs)
	assert.True(t, d.stack.empty())
}

func TestDriver_UnknownInstructionIsDefect(t *testing.T) {
	rt := NewRuntime(WithScheduler(scheduler.NewManual()))
	d := rt.newDriver("", cause.NoFiber, nil)
	d.runInline(alienInstr{})

	exit, ok := d.poll()
	require.True(t, ok)
	assert.True(t, exit.IsAbort())
}

type alienInstr struct{}

func (alienInstr) isInstr() {}
