package fiber

import (
	"github.com/on-the-ground/fiber_ive_go/cause"
	"go.uber.org/zap"
)

// contextSwitch parks the fiber on an asynchronous registration. The driver
// loop returns right after; resume, or an interruption, schedules the next
// instruction.
func (d *driver) contextSwitch(register func(resume func(instr)) func()) {
	op := &asyncOp{interruptible: d.interruptible()}
	d.suspensions.Add(1)

	d.mu.Lock()
	d.pending = op
	d.mu.Unlock()

	resume := func(next instr) {
		if !op.fired.CompareAndSwap(false, true) {
			return
		}
		d.clearPending(op)
		d.schedule(next)
	}

	cancel := d.register(op, register, resume)

	d.mu.Lock()
	op.cancel = cancel
	lateCancel := op.cancelled && cancel != nil
	d.mu.Unlock()
	if lateCancel {
		d.runCancel(cancel)
	}

	// an interruption that arrived before op was visible is delivered here
	if op.interruptible && d.interrupted.Load() {
		d.interruptPending(op)
	}
}

// register calls the user registration. A panic before resumption becomes a
// defect of the fiber; a panic after it can only be logged.
func (d *driver) register(op *asyncOp, register func(func(instr)) func(), resume func(instr)) func() {
	defer func() {
		if r := recover(); r != nil {
			if op.fired.CompareAndSwap(false, true) {
				d.clearPending(op)
				panic(r)
			}
			d.rt.logger.Error("panic in async registration after resumption",
				append(d.fields(), zap.Any("panic", r))...)
		}
	}()
	return register(resume)
}

func (d *driver) clearPending(op *asyncOp) {
	d.mu.Lock()
	if d.pending == op {
		d.pending = nil
	}
	d.mu.Unlock()
}

// interrupt requests cooperative cancellation on behalf of by. The first
// request wins; requests after completion are ignored.
func (d *driver) interrupt(by cause.FiberID) {
	d.mu.Lock()
	if d.exit != nil || d.interrupted.Load() {
		d.mu.Unlock()
		return
	}
	d.interruptor = by
	d.interrupted.Store(true)
	op := d.pending
	d.mu.Unlock()

	if ce := d.rt.logger.Check(zap.DebugLevel, "fiber interrupt requested"); ce != nil {
		ce.Write(append(d.fields(), zap.Stringer("interruptor", by))...)
	}
	if op != nil && op.interruptible {
		d.interruptPending(op)
	}
}

// interruptPending takes op away from its resume callback, runs its cancel
// thunk and resumes the fiber with an Interrupt cause.
func (d *driver) interruptPending(op *asyncOp) {
	if !op.fired.CompareAndSwap(false, true) {
		return
	}
	d.mu.Lock()
	cancel := op.cancel
	op.cancelled = true
	by := d.interruptor
	if d.pending == op {
		d.pending = nil
	}
	d.mu.Unlock()

	if cancel != nil {
		d.runCancel(cancel)
	}
	d.schedule(failInstr{cause: cause.InterruptOf[error](by)})
}

func (d *driver) runCancel(cancel func()) {
	defer func() {
		if r := recover(); r != nil {
			d.rt.logger.Error("panic in async cancellation", append(d.fields(), zap.Any("panic", r))...)
		}
	}()
	cancel()
}
