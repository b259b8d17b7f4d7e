package rowan

// SqtMutatorFn adjusts a candidate pose in place according to some
// constraint (clamp to a box, snap to a grid, stick to a surface). commit is
// false for the speculative per-frame pass while an interaction is live and
// true exactly once when the pose is finalized on release; mutators may
// resolve differently in the two passes (e.g. soft-clamp while dragging,
// hard-clamp on commit).
type SqtMutatorFn func(entity Entity, sqt *Sqt, commit bool)

type mutatorKey struct {
	entity Entity
	group  string
}

// MutatorSystem holds ordered chains of pose mutators keyed by entity and
// group name. The grab system runs the chain for a grabbable's group on
// every frame of a grab and once more, with commit=true, on release.
type MutatorSystem struct {
	chains map[mutatorKey][]SqtMutatorFn
}

// NewMutatorSystem creates an empty mutator registry.
func NewMutatorSystem() *MutatorSystem {
	return &MutatorSystem{chains: map[mutatorKey][]SqtMutatorFn{}}
}

// RegisterSqtMutator appends fn to the chain for entity and group. Chains
// run in registration order.
func (m *MutatorSystem) RegisterSqtMutator(entity Entity, group string, fn SqtMutatorFn) {
	key := mutatorKey{entity, group}
	m.chains[key] = append(m.chains[key], fn)
}

// ClearSqtMutators drops the chain for entity and group.
func (m *MutatorSystem) ClearSqtMutators(entity Entity, group string) {
	delete(m.chains, mutatorKey{entity, group})
}

// ApplySqtMutator runs the chain for entity and group over sqt. Entities
// with no chain for the group are left unchanged; that is the common case,
// not an error.
func (m *MutatorSystem) ApplySqtMutator(entity Entity, group string, sqt *Sqt, commit bool) {
	for _, fn := range m.chains[mutatorKey{entity, group}] {
		fn(entity, sqt, commit)
	}
}
