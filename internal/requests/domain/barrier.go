package domain

// Barrier is a small all-must-agree latch set: a transition guarded by a
// barrier fires only when every named latch has been set, and the actor whose
// write sets the final latch is the one that triggers it. The dual-acceptance
// protocol on revised estimates and the two-sided completion validation are
// both instances of this shape.
type Barrier struct {
	latches map[string]bool
}

// NewBarrier creates a barrier with the given latch names, all unset.
func NewBarrier(names ...string) Barrier {
	latches := make(map[string]bool, len(names))
	for _, name := range names {
		latches[name] = false
	}
	return Barrier{latches: latches}
}

// WithSet returns a copy of the barrier with the named latch already set.
// Unknown names are ignored.
func (b Barrier) WithSet(names ...string) Barrier {
	next := b.clone()
	for _, name := range names {
		if _, ok := next.latches[name]; ok {
			next.latches[name] = true
		}
	}
	return next
}

// Set marks the named latch and reports whether that write completed the
// barrier: true only when every latch is now set AND the named latch was the
// last one outstanding. Setting an already-set latch never completes the
// barrier a second time.
func (b Barrier) Set(name string) (Barrier, bool) {
	if _, ok := b.latches[name]; !ok {
		return b, false
	}
	if b.latches[name] {
		return b, false
	}
	next := b.clone()
	next.latches[name] = true
	return next, next.Complete()
}

// IsSet reports whether the named latch has been set.
func (b Barrier) IsSet(name string) bool {
	return b.latches[name]
}

// Complete reports whether every latch is set.
func (b Barrier) Complete() bool {
	for _, set := range b.latches {
		if !set {
			return false
		}
	}
	return len(b.latches) > 0
}

func (b Barrier) clone() Barrier {
	latches := make(map[string]bool, len(b.latches))
	for name, set := range b.latches {
		latches[name] = set
	}
	return Barrier{latches: latches}
}
