package fiber

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/registry"
	"go.uber.org/zap"
)

// driver interprets one fiber. The frame stack, region stack and environment
// stack belong to whichever goroutine is currently evaluating the fiber; the
// scheduler hands the fiber from one goroutine to the next, never to two.
type driver struct {
	id     cause.FiberID
	key    string
	name   string
	parent cause.FiberID
	rt     *Runtime

	stack      stack
	regions    []bool
	envs       []any
	supervisor *supervisor

	interrupted atomic.Bool
	observed    atomic.Bool
	suspensions atomic.Int64

	mu          sync.Mutex
	interruptor cause.FiberID
	exit        *cause.Exit[error, any]
	listeners   []*listener
	pending     *asyncOp
	startedAt   time.Time
	finishedAt  time.Time
}

type listener struct {
	cb func(cause.Exit[error, any])
}

// asyncOp is one suspension. fired flips exactly once, either by the resume
// callback or by an interruption.
type asyncOp struct {
	fired         atomic.Bool
	interruptible bool
	cancel        func() // guarded by driver.mu
	cancelled     bool   // guarded by driver.mu
}

func (d *driver) PartitionKey() string {
	return d.key
}

func (d *driver) start(i instr) {
	d.rt.register(d)
	d.debug("fiber started")
	d.schedule(i)
}

func (d *driver) runInline(i instr) {
	d.rt.register(d)
	d.debug("fiber started")
	d.evaluate(i)
}

func (d *driver) schedule(next instr) {
	d.rt.schedule(d, func() { d.evaluate(next) })
}

// evaluate runs the trampoline from cur until the fiber suspends or settles.
func (d *driver) evaluate(cur instr) {
	for cur != nil {
		cur = d.step(cur)
	}
}

// step interprets instructions until the fiber suspends or settles. A panic
// is returned to evaluate as a Die instruction.
func (d *driver) step(cur instr) (next instr) {
	defer func() {
		if r := recover(); r != nil {
			d.rt.logger.Error("recovered panic in fiber", append(d.fields(), zap.Any("panic", r))...)
			next = failInstr{cause: cause.DieOf[error](cause.NewPanicError(r))}
		}
	}()

	for cur != nil {
		if d.shouldInterrupt() {
			c := cause.InterruptOf[error](d.interruptedBy())
			if f, ok := cur.(failInstr); ok {
				if cause.Interrupted(f.cause) {
					c = f.cause
				} else {
					c = cause.Sequential(f.cause, c)
				}
			}
			cur = d.handle(c)
			continue
		}

		switch i := cur.(type) {
		case pureInstr:
			cur = d.succeed(i.value)

		case failInstr:
			cur = d.handle(i.cause)

		case suspendInstr:
			cur = i.thunk()

		case asyncInstr:
			d.contextSwitch(i.register)
			return nil

		case chainInstr:
			if p, ok := i.effect.(pureInstr); ok {
				cur = i.k(p.value)
				continue
			}
			f := acquireFrame(chainFrame)
			f.k = i.k
			d.stack.push(f)
			cur = i.effect

		case mapInstr:
			if p, ok := i.effect.(pureInstr); ok {
				cur = pureInstr{value: i.f(p.value)}
				continue
			}
			f := acquireFrame(mapFrame)
			f.f = i.f
			d.stack.push(f)
			cur = i.effect

		case foldInstr:
			f := acquireFrame(foldFrame)
			f.k = i.onSuccess
			f.onFailure = i.onFailure
			d.stack.push(f)
			cur = i.effect

		case regionInstr:
			d.regions = append(d.regions, i.interruptible)
			d.stack.push(acquireFrame(regionFrame))
			cur = i.effect

		case accessEnvInstr:
			cur = pureInstr{value: d.environment()}

		case provideEnvInstr:
			d.envs = append(d.envs, i.env)
			d.stack.push(acquireFrame(envFrame))
			cur = i.effect

		case forkInstr:
			cur = pureInstr{value: i.wrap(d.fork(i))}

		case descriptorInstr:
			cur = pureInstr{value: d.descriptor()}

		default:
			panic(fmt.Sprintf("exhaustive match fallback, instruction type: %T", i))
		}
	}
	return nil
}

// succeed feeds value to the nearest continuation.
func (d *driver) succeed(value any) instr {
	for {
		f := d.stack.pop()
		if f == nil {
			d.done(cause.Done[error, any](value))
			return nil
		}
		switch f.kind {
		case chainFrame, foldFrame:
			k := f.k
			releaseFrame(f)
			return k(value)
		case mapFrame:
			fn := f.f
			releaseFrame(f)
			value = fn(value)
		case regionFrame:
			releaseFrame(f)
			d.popRegion()
			// leaving a region may make a pending interruption deliverable
			return pureInstr{value: value}
		case envFrame:
			releaseFrame(f)
			d.popEnv()
		default:
			panic(fmt.Sprintf("exhaustive match fallback, frame kind: %d", f.kind))
		}
	}
}

// handle unwinds to the nearest fold frame that may observe c. Fold frames
// are skipped while an interruption is deliverable.
func (d *driver) handle(c cause.Cause[error]) instr {
	for {
		f := d.stack.pop()
		if f == nil {
			d.done(cause.FromCause[error, any](c))
			return nil
		}
		switch f.kind {
		case chainFrame, mapFrame:
			releaseFrame(f)
		case foldFrame:
			if d.shouldInterrupt() {
				releaseFrame(f)
				continue
			}
			h := f.onFailure
			releaseFrame(f)
			return h(c)
		case regionFrame:
			releaseFrame(f)
			d.popRegion()
		case envFrame:
			releaseFrame(f)
			d.popEnv()
		default:
			panic(fmt.Sprintf("exhaustive match fallback, frame kind: %d", f.kind))
		}
	}
}

func (d *driver) interruptible() bool {
	n := len(d.regions)
	return n == 0 || d.regions[n-1]
}

func (d *driver) shouldInterrupt() bool {
	return d.interrupted.Load() && d.interruptible()
}

func (d *driver) popRegion() {
	d.regions = d.regions[:len(d.regions)-1]
}

func (d *driver) environment() any {
	if n := len(d.envs); n > 0 {
		return d.envs[n-1]
	}
	return nil
}

func (d *driver) popEnv() {
	d.envs[len(d.envs)-1] = nil
	d.envs = d.envs[:len(d.envs)-1]
}

func (d *driver) interruptedBy() cause.FiberID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interruptor
}

func (d *driver) fork(i forkInstr) *driver {
	child := d.rt.newDriver(i.name, d.id, d.environment())
	if i.supervised {
		if d.supervisor == nil {
			d.supervisor = &supervisor{}
		}
		d.supervisor.add(child)
	}
	child.start(i.effect)
	return child
}

func (d *driver) descriptor() Descriptor {
	return Descriptor{
		ID:            d.id,
		Name:          d.name,
		Parent:        d.parent,
		Interrupted:   d.interrupted.Load(),
		Interruptible: d.interruptible(),
		Logger:        d.rt.logger.With(d.fields()...),
	}
}

// done settles the fiber's own evaluation. A supervising fiber completes only
// after its children have drained.
func (d *driver) done(exit cause.Exit[error, any]) {
	if c, failed := exit.Cause(); failed && d.interrupted.Load() && !cause.Interrupted(c) {
		exit = cause.FromCause[error, any](cause.Sequential(c, cause.InterruptOf[error](d.interruptedBy())))
	}
	if d.supervisor != nil {
		d.rt.setStatus(d, registry.StatusDraining)
		d.supervisor.drain(d, exit)
		return
	}
	d.complete(exit)
}

// complete publishes exit. Only the first call has any effect.
func (d *driver) complete(exit cause.Exit[error, any]) {
	d.mu.Lock()
	if d.exit != nil {
		d.mu.Unlock()
		return
	}
	d.exit = &exit
	d.finishedAt = time.Now()
	listeners := d.listeners
	d.listeners = nil
	d.pending = nil
	d.mu.Unlock()

	d.rt.unregister(d)
	if ce := d.rt.logger.Check(zap.DebugLevel, "fiber finished"); ce != nil {
		ce.Write(append(d.fields(), zap.Stringer("exit", exit))...)
	}
	for _, l := range listeners {
		l.cb(exit)
	}
}

// onDone calls cb with the exit once it exists, right away if it already
// does. The returned listener is nil when cb already ran.
func (d *driver) onDone(cb func(cause.Exit[error, any])) *listener {
	d.mu.Lock()
	if d.exit != nil {
		exit := *d.exit
		d.mu.Unlock()
		cb(exit)
		return nil
	}
	l := &listener{cb: cb}
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
	return l
}

func (d *driver) removeListener(l *listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	d.listeners = slices.DeleteFunc(d.listeners, func(other *listener) bool { return other == l })
	d.mu.Unlock()
}

func (d *driver) poll() (cause.Exit[error, any], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.exit == nil {
		return cause.Exit[error, any]{}, false
	}
	return *d.exit, true
}

func (d *driver) lifetime() (start, end time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startedAt, d.finishedAt, d.exit != nil
}

func (d *driver) fields() []zap.Field {
	fields := []zap.Field{zap.Stringer("fiber_id", d.id)}
	if d.name != "" {
		fields = append(fields, zap.String("fiber_name", d.name))
	}
	if !d.parent.IsNone() {
		fields = append(fields, zap.Stringer("parent_id", d.parent))
	}
	return fields
}

func (d *driver) debug(msg string) {
	if ce := d.rt.logger.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(d.fields()...)
	}
}
