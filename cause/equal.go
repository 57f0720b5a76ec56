package cause

import (
	"fmt"
	"reflect"
)

// Equal reports whether a and b are the same cause modulo the Then and Both
// laws. Fail payloads are compared with ==.
func Equal[E comparable](a, b Cause[E]) bool {
	return EqualFunc(a, b, func(x, y E) bool { return x == y })
}

// EqualFunc is Equal with a caller supplied comparison for Fail payloads.
//
// Both sides are reduced to a canonical form first: Empty operands vanish,
// nested Then nodes flatten into one sequence and nested Both nodes flatten
// into one unordered group.
func EqualFunc[E any](a, b Cause[E], eq func(E, E) bool) bool {
	ca, okA := canonicalize(a)
	cb, okB := canonicalize(b)
	if !okA || !okB {
		return okA == okB
	}
	return canonEqual(ca, cb, eq)
}

type canonKind uint8

const (
	canonLeaf canonKind = iota
	canonSeq
	canonPar
)

type canon[E any] struct {
	kind  canonKind
	leaf  Cause[E]
	parts []canon[E]
}

// canonicalize returns false when c is empty.
func canonicalize[E any](c Cause[E]) (canon[E], bool) {
	switch c := c.(type) {
	case nil, Empty[E]:
		return canon[E]{}, false
	case Fail[E], Die[E], Interrupt[E]:
		return canon[E]{kind: canonLeaf, leaf: c}, true
	case Then[E]:
		return flatten(canonSeq, c.Left, c.Right)
	case Both[E]:
		return flatten(canonPar, c.Left, c.Right)
	default:
		panic(exhaustive(c))
	}
}

func flatten[E any](kind canonKind, operands ...Cause[E]) (canon[E], bool) {
	var parts []canon[E]
	for _, op := range operands {
		sub, ok := canonicalize(op)
		if !ok {
			continue
		}
		if sub.kind == kind {
			parts = append(parts, sub.parts...)
			continue
		}
		parts = append(parts, sub)
	}
	switch len(parts) {
	case 0:
		return canon[E]{}, false
	case 1:
		return parts[0], true
	default:
		return canon[E]{kind: kind, parts: parts}, true
	}
}

func canonEqual[E any](a, b canon[E], eq func(E, E) bool) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case canonLeaf:
		return leafEqual(a.leaf, b.leaf, eq)
	case canonSeq:
		if len(a.parts) != len(b.parts) {
			return false
		}
		for i := range a.parts {
			if !canonEqual(a.parts[i], b.parts[i], eq) {
				return false
			}
		}
		return true
	case canonPar:
		if len(a.parts) != len(b.parts) {
			return false
		}
		used := make([]bool, len(b.parts))
	next:
		for _, pa := range a.parts {
			for j, pb := range b.parts {
				if !used[j] && canonEqual(pa, pb, eq) {
					used[j] = true
					continue next
				}
			}
			return false
		}
		return true
	default:
		panic(fmt.Sprintf("exhaustive match fallback, canon kind: %d", a.kind))
	}
}

func leafEqual[E any](a, b Cause[E], eq func(E, E) bool) bool {
	switch a := a.(type) {
	case Fail[E]:
		other, ok := b.(Fail[E])
		return ok && eq(a.Error, other.Error)
	case Die[E]:
		other, ok := b.(Die[E])
		return ok && defectEqual(a.Defect, other.Defect)
	case Interrupt[E]:
		other, ok := b.(Interrupt[E])
		return ok && a.FiberID == other.FiberID
	default:
		panic(exhaustive(a))
	}
}

// defectEqual matches defects by identity, falling back to type and message
// for defects that cannot be compared with ==.
func defectEqual(a, b error) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() && a == b {
		return true
	}
	return a.Error() == b.Error()
}
