package fiber

import "github.com/on-the-ground/fiber_ive_go/cause"

// instr is one node of the closed instruction set the driver interprets.
// Values are erased to any; the typed constructors restore them.
type instr interface {
	isInstr()
}

type pureInstr struct {
	value any
}

type failInstr struct {
	cause cause.Cause[error]
}

type suspendInstr struct {
	thunk func() instr
}

// asyncInstr suspends the fiber until resume is called. register may return a
// cancel thunk run when the fiber is interrupted while suspended.
type asyncInstr struct {
	register func(resume func(instr)) (cancel func())
}

type chainInstr struct {
	effect instr
	k      func(any) instr
}

type mapInstr struct {
	effect instr
	f      func(any) any
}

type foldInstr struct {
	effect    instr
	onFailure func(cause.Cause[error]) instr
	onSuccess func(any) instr
}

type regionInstr struct {
	effect        instr
	interruptible bool
}

type accessEnvInstr struct{}

type provideEnvInstr struct {
	effect instr
	env    any
}

type forkInstr struct {
	effect     instr
	name       string
	supervised bool
	wrap       func(*driver) any
}

type descriptorInstr struct{}

func (pureInstr) isInstr()       {}
func (failInstr) isInstr()       {}
func (suspendInstr) isInstr()    {}
func (asyncInstr) isInstr()      {}
func (chainInstr) isInstr()      {}
func (mapInstr) isInstr()        {}
func (foldInstr) isInstr()       {}
func (regionInstr) isInstr()     {}
func (accessEnvInstr) isInstr()  {}
func (provideEnvInstr) isInstr() {}
func (forkInstr) isInstr()       {}
func (descriptorInstr) isInstr() {}
