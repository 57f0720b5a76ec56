package fiber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/internal/helper"
	"github.com/on-the-ground/fiber_ive_go/model"
	"github.com/on-the-ground/fiber_ive_go/registry"
	"github.com/on-the-ground/fiber_ive_go/scheduler"
	"go.uber.org/zap"
)

type contextKey string

const runtimeKey contextKey = "fiber_ive_go_runtime"

var (
	ErrNoRuntime  = errors.New("no fiber runtime in context")
	ErrNoRegistry = errors.New("runtime has no fiber registry")
)

// Runtime runs effects. It owns the scheduler every fiber continuation is
// submitted to, the logger and the optional fiber registry.
type Runtime struct {
	scheduler scheduler.Scheduler
	logger    *zap.Logger
	registry  *registry.Registry
	env       any
	closeFn   func()
}

type Option func(*Runtime)

func WithScheduler(s scheduler.Scheduler) Option {
	return func(rt *Runtime) { rt.scheduler = s }
}

func WithLogger(logger *zap.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

func WithRegistry(reg *registry.Registry) Option {
	return func(rt *Runtime) { rt.registry = reg }
}

// WithEnvironment sets the environment root fibers start with.
func WithEnvironment(env any) Option {
	return func(rt *Runtime) { rt.env = env }
}

// NewRuntime builds a runtime. Without WithScheduler it starts a single
// worker queue that lives until Close.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{logger: zap.NewNop(), closeFn: func() {}}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.scheduler == nil {
		ctx, cancel := context.WithCancel(context.Background())
		rt.scheduler = scheduler.NewSingleQueue(ctx, 1)
		rt.closeFn = cancel
	}
	return rt
}

// Close stops the scheduler NewRuntime started on its own, if any.
func (rt *Runtime) Close() {
	rt.closeFn()
	_ = rt.logger.Sync()
}

// Dump lists the fibers currently alive, oldest first.
func (rt *Runtime) Dump() ([]registry.Record, error) {
	if rt.registry == nil {
		return nil, ErrNoRegistry
	}
	return rt.registry.Live()
}

// WithRuntime installs a runtime built from cfg into ctx. The returned
// teardown stops the runtime's workers and returns the original context.
func WithRuntime(
	ctx context.Context,
	cfg model.RuntimeConfig,
	opts ...Option,
) (context.Context, func() context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	base := []Option{WithScheduler(scheduler.New(runCtx, cfg))}
	if cfg.Registry {
		reg, err := registry.New()
		if err != nil {
			panic(err)
		}
		base = append(base, WithRegistry(reg))
	}
	rt := NewRuntime(append(base, opts...)...)
	rt.closeFn = cancel

	rt.logger.Debug("fiber runtime started",
		zap.String("scheduler", string(cfg.Scheduler)),
		zap.Int("num_workers", cfg.NumWorkers),
		zap.Bool("registry", cfg.Registry),
	)

	return context.WithValue(ctx, runtimeKey, rt), func() context.Context {
		rt.Close()
		return ctx
	}
}

func FromContext(ctx context.Context) (*Runtime, error) {
	rt, err := helper.ContextValue[*Runtime](ctx, runtimeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRuntime, err)
	}
	if rt == nil {
		return nil, ErrNoRuntime
	}
	return rt, nil
}

// Run runs eff on the runtime installed in ctx and blocks for its exit. It
// panics when ctx carries no runtime.
func Run[A any](ctx context.Context, eff Effect[A]) cause.Exit[error, A] {
	rt := helper.MustContextValue[*Runtime](ctx, runtimeKey)
	return RunWith(ctx, rt, eff)
}

// RunWith runs eff as a root fiber, starting on the calling goroutine. If ctx
// ends first, the fiber is interrupted and RunWith still waits for its exit.
func RunWith[A any](ctx context.Context, rt *Runtime, eff Effect[A]) cause.Exit[error, A] {
	d := rt.newDriver("", cause.NoFiber, rt.env)
	d.runInline(eff.node())
	f := &Fiber[A]{d: d}

	exit, err := f.Await(ctx)
	if err == nil {
		return exit
	}
	rt.logger.Debug("context done, interrupting root fiber", append(d.fields(), zap.Error(err))...)
	d.interrupt(cause.NoFiber)
	exit, _ = f.Await(context.Background())
	return exit
}

// RunSync evaluates eff on the calling goroutine. It reports false when the
// fiber suspended before settling; the returned fiber keeps running.
func RunSync[A any](rt *Runtime, eff Effect[A]) (cause.Exit[error, A], *Fiber[A], bool) {
	d := rt.newDriver("", cause.NoFiber, rt.env)
	d.runInline(eff.node())
	f := &Fiber[A]{d: d}
	exit, ok := f.Poll()
	return exit, f, ok
}

// Start forks eff as a root fiber on the scheduler.
func Start[A any](rt *Runtime, eff Effect[A]) *Fiber[A] {
	d := rt.newDriver("", cause.NoFiber, rt.env)
	d.start(eff.node())
	return &Fiber[A]{d: d}
}

func (rt *Runtime) newDriver(name string, parent cause.FiberID, env any) *driver {
	id := cause.NewFiberID()
	d := &driver{
		id:        id,
		key:       id.String(),
		name:      name,
		parent:    parent,
		rt:        rt,
		startedAt: time.Now(),
	}
	if env != nil {
		d.envs = []any{env}
	}
	return d
}

func (rt *Runtime) schedule(d *driver, task func()) {
	if ts, ok := rt.scheduler.(scheduler.TryScheduler); ok {
		if err := ts.TrySchedule(d, task); err != nil {
			// a fiber has one continuation at a time, so it cannot race itself
			rt.logger.Debug("scheduler refused continuation, running detached", append(d.fields(), zap.Error(err))...)
			go task()
		}
		return
	}
	rt.scheduler.Schedule(d, task)
}

func (rt *Runtime) register(d *driver) {
	if rt.registry == nil {
		return
	}
	parent := ""
	if !d.parent.IsNone() {
		parent = d.parent.String()
	}
	if _, err := rt.registry.Register(registry.Record{
		ID:        d.key,
		Name:      d.name,
		Parent:    parent,
		Status:    registry.StatusRunning,
		StartedAt: d.startedAt,
	}); err != nil {
		rt.logger.Warn("failed to register fiber", append(d.fields(), zap.Error(err))...)
	}
}

func (rt *Runtime) setStatus(d *driver, status registry.Status) {
	if rt.registry == nil {
		return
	}
	if _, err := rt.registry.SetStatus(d.key, status); err != nil {
		rt.logger.Warn("failed to update fiber status", append(d.fields(), zap.Error(err))...)
	}
}

func (rt *Runtime) unregister(d *driver) {
	if rt.registry == nil {
		return
	}
	if _, err := rt.registry.Remove(d.key); err != nil {
		rt.logger.Warn("failed to unregister fiber", append(d.fields(), zap.Error(err))...)
	}
}
