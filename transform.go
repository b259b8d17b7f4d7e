package rowan

// TransformSystem stores a pose per entity and resolves world-from-entity
// matrices through parent links. It is the transform collaborator consumed
// by the input processor and grab systems; applications may substitute a
// richer scene graph as long as it exposes the same queries.
type TransformSystem struct {
	nodes map[Entity]*transformNode
}

type transformNode struct {
	sqt    Sqt
	parent Entity
}

// NewTransformSystem creates an empty transform store.
func NewTransformSystem() *TransformSystem {
	return &TransformSystem{nodes: map[Entity]*transformNode{}}
}

// Create registers an entity with the given local pose and no parent.
// Creating an existing entity resets its pose.
func (t *TransformSystem) Create(entity Entity, sqt Sqt) {
	if n, ok := t.nodes[entity]; ok {
		n.sqt = sqt
		return
	}
	t.nodes[entity] = &transformNode{sqt: sqt}
}

// Destroy removes an entity's transform. Children keep their parent link and
// resolve it as identity until reparented.
func (t *TransformSystem) Destroy(entity Entity) {
	delete(t.nodes, entity)
}

// SetParent links entity under parent. The local pose is kept as-is; the
// world pose changes accordingly.
func (t *TransformSystem) SetParent(entity, parent Entity) {
	if n, ok := t.nodes[entity]; ok {
		n.parent = parent
	}
}

// GetSqt returns the entity's local pose. ok is false if the entity has no
// transform.
func (t *TransformSystem) GetSqt(entity Entity) (Sqt, bool) {
	n, ok := t.nodes[entity]
	if !ok {
		return Sqt{}, false
	}
	return n.sqt, true
}

// SetSqt replaces the entity's local pose. No-op if the entity has no
// transform.
func (t *TransformSystem) SetSqt(entity Entity, sqt Sqt) {
	if n, ok := t.nodes[entity]; ok {
		n.sqt = sqt
	}
}

// GetWorldFromEntityMatrix resolves the entity's world matrix through its
// parent chain. ok is false if the entity has no transform.
func (t *TransformSystem) GetWorldFromEntityMatrix(entity Entity) (Mat4, bool) {
	n, ok := t.nodes[entity]
	if !ok {
		return Mat4Identity, false
	}
	world := n.sqt.Mat4()
	for parent := n.parent; parent != NullEntity; {
		pn, ok := t.nodes[parent]
		if !ok {
			break
		}
		world = pn.sqt.Mat4().Mul(world)
		parent = pn.parent
	}
	return world, true
}

// SetWorldFromEntityMatrix sets the entity's pose so that its world matrix
// equals the given matrix, solving for the local pose against the parent's
// world matrix. No-op if the entity has no transform.
func (t *TransformSystem) SetWorldFromEntityMatrix(entity Entity, world Mat4) {
	n, ok := t.nodes[entity]
	if !ok {
		return
	}
	local := world
	if n.parent != NullEntity {
		if parentWorld, ok := t.GetWorldFromEntityMatrix(n.parent); ok {
			local = parentWorld.Inverse().Mul(world)
		}
	}
	n.sqt = local.Sqt()
}
