package sqldbpool

import "sync/atomic"

// nameStack is a concurrent LIFO of connection names: lock-free push/pop,
// each reporting whether a value was produced. A Treiber stack (an
// untagged head pointer swapped with CompareAndSwap) is the natural
// idiomatic-Go shape here — sync/atomic already gives ABA-safety for free
// because every node is a freshly allocated *stackNode, never reused
// across a push/pop cycle.
type nameStack struct {
	head atomic.Pointer[stackNode]
}

type stackNode struct {
	name string
	next *stackNode
}

// push adds name to the top of the stack.
func (s *nameStack) push(name string) {
	n := &stackNode{name: name}
	for {
		old := s.head.Load()
		n.next = old
		if s.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// pop removes and returns the top of the stack. ok is false when the stack
// is empty.
func (s *nameStack) pop() (name string, ok bool) {
	for {
		old := s.head.Load()
		if old == nil {
			return "", false
		}
		if s.head.CompareAndSwap(old, old.next) {
			return old.name, true
		}
	}
}

// len returns a point-in-time count, for diagnostics only — it is not
// synchronised with concurrent push/pop and must never be used to decide
// correctness; membership, not size, is what callers may rely on.
func (s *nameStack) len() int {
	n := 0
	for node := s.head.Load(); node != nil; node = node.next {
		n++
	}
	return n
}
