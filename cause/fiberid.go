package cause

import "github.com/google/uuid"

// FiberID identifies a fiber. The zero value, NoFiber, stands for an
// interruption that came from outside any fiber.
type FiberID uuid.UUID

var NoFiber FiberID

func NewFiberID() FiberID {
	return FiberID(uuid.New())
}

func (id FiberID) IsNone() bool {
	return id == NoFiber
}

func (id FiberID) String() string {
	if id.IsNone() {
		return "none"
	}
	return uuid.UUID(id).String()
}
