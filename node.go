package moonquake

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// NodeID is a handle into a Graph's node arena. The zero value means "no node".
type NodeID uint32

// None is the invalid NodeID.
const None NodeID = 0

// Light describes a directional light. The light shines from the node's
// world position towards the origin.
type Light struct {
	Color     Color
	Intensity float64
}

// Node is the fundamental scene graph element. A single flat struct is used for
// all node types to avoid interface dispatch on the hot path. Nodes live in a
// Graph arena and refer to each other by NodeID.
type Node struct {
	// Identity
	ID   NodeID
	Name string
	Type NodeType

	// Hierarchy (parent is a lookup-only back-reference)
	parent   NodeID
	children []NodeID

	// Transform (local)
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	// Computed during traversal
	worldMatrix    mgl64.Mat4
	worldAlpha     float64
	transformDirty bool

	// Visibility
	Alpha   float64
	Visible bool

	// Billboard nodes face the camera; only their world position is used.
	Billboard bool

	// Ordering among coplanar commands
	RenderLayer uint8

	// Metadata
	UserData any

	// Mesh fields (NodeTypeMesh)
	Mesh *Mesh

	// Light fields (NodeTypeLight)
	Light *Light

	disposed bool
}

// Graph owns every node of a scene in an arena. Index 0 is reserved so that
// the zero NodeID never resolves.
type Graph struct {
	nodes []*Node
	debug bool
	log   zerolog.Logger
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make([]*Node, 1, 64), log: zerolog.Nop()}
}

// SetLogger sets the logger used for debug-mode warnings.
func (g *Graph) SetLogger(l zerolog.Logger) {
	g.log = l
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.Rotation = mgl64.QuatIdent()
	n.Scale = mgl64.Vec3{1, 1, 1}
	n.Alpha = 1
	n.Visible = true
	n.transformDirty = true
	n.worldMatrix = mgl64.Ident4()
}

func (g *Graph) add(n *Node) NodeID {
	nodeDefaults(n)
	n.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n.ID
}

// NewContainer creates a container node with no visual representation.
func (g *Graph) NewContainer(name string) NodeID {
	return g.add(&Node{Name: name, Type: NodeTypeContainer})
}

// NewMeshNode creates a node that renders the given mesh.
func (g *Graph) NewMeshNode(name string, mesh *Mesh) NodeID {
	return g.add(&Node{Name: name, Type: NodeTypeMesh, Mesh: mesh})
}

// NewLight creates a directional light node.
func (g *Graph) NewLight(name string, light Light) NodeID {
	l := light
	return g.add(&Node{Name: name, Type: NodeTypeLight, Light: &l})
}

// Node returns the node for id, or nil if id is None, out of range or disposed.
func (g *Graph) Node(id NodeID) *Node {
	if id == None || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// mustNode resolves id or panics with the operation name.
func (g *Graph) mustNode(id NodeID, op string) *Node {
	n := g.Node(id)
	if n == nil {
		panic("moonquake: " + op + ": unknown or disposed node")
	}
	return n
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	count := 0
	for _, n := range g.nodes[1:] {
		if n != nil {
			count++
		}
	}
	return count
}

// SetDebugMode enables disposed-node checks and tree-shape warnings.
func (g *Graph) SetDebugMode(enabled bool) {
	g.debug = enabled
}

// --- Tree manipulation ---

// AddChild appends child to parent's children.
// If child already has a parent, it is removed from that parent first.
// Panics if either id is unknown or child is an ancestor of parent (cycle).
func (g *Graph) AddChild(parent, child NodeID) {
	p := g.mustNode(parent, "AddChild (parent)")
	c := g.mustNode(child, "AddChild (child)")
	if g.isAncestor(child, parent) {
		panic("moonquake: adding child would create a cycle")
	}
	if c.parent != None {
		g.nodes[c.parent].removeChildByID(child)
	}
	c.parent = parent
	p.children = append(p.children, child)
	g.markSubtreeDirty(c)
	if g.debug {
		g.debugCheckTreeDepth(c)
		g.debugCheckChildCount(p)
	}
}

// RemoveChild detaches child from parent.
// Panics if child's parent is not parent.
func (g *Graph) RemoveChild(parent, child NodeID) {
	p := g.mustNode(parent, "RemoveChild (parent)")
	c := g.mustNode(child, "RemoveChild (child)")
	if c.parent != parent {
		panic("moonquake: child's parent is not this node")
	}
	p.removeChildByID(child)
	c.parent = None
	g.markSubtreeDirty(c)
}

// RemoveFromParent detaches id from its parent.
// No-op if the node has no parent.
func (g *Graph) RemoveFromParent(id NodeID) {
	n := g.mustNode(id, "RemoveFromParent")
	if n.parent == None {
		return
	}
	g.RemoveChild(n.parent, id)
}

// Parent returns the parent of id, or None.
func (g *Graph) Parent(id NodeID) NodeID {
	n := g.Node(id)
	if n == nil {
		return None
	}
	return n.parent
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (g *Graph) Children(id NodeID) []NodeID {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	return n.children
}

// NumChildren returns the number of children of id.
func (g *Graph) NumChildren(id NodeID) int {
	return len(g.Children(id))
}

// Walk visits id and its descendants depth-first. Returning false from fn
// skips the node's subtree.
func (g *Graph) Walk(id NodeID, fn func(n *Node) bool) {
	n := g.Node(id)
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		g.Walk(c, fn)
	}
}

// --- Disposal ---

// Dispose removes id from its parent, marks it as disposed, releases its arena
// slot and recursively disposes all descendants. Disposing None or an
// already-disposed node is a no-op.
func (g *Graph) Dispose(id NodeID) {
	n := g.Node(id)
	if n == nil {
		return
	}
	g.RemoveFromParent(id)
	g.dispose(n)
}

func (g *Graph) dispose(n *Node) {
	for _, c := range n.children {
		if child := g.Node(c); child != nil {
			child.parent = None
			g.dispose(child)
		}
	}
	g.nodes[n.ID] = nil
	n.disposed = true
	n.children = nil
	n.parent = None
	n.Mesh = nil
	n.Light = nil
	n.UserData = nil
	n.ID = None
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func (g *Graph) isAncestor(candidate, node NodeID) bool {
	for p := node; p != None; p = g.nodes[p].parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByID removes child from n.children without clearing its parent.
func (n *Node) removeChildByID(child NodeID) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func (g *Graph) markSubtreeDirty(n *Node) {
	n.transformDirty = true
	for _, c := range n.children {
		if child := g.Node(c); child != nil {
			g.markSubtreeDirty(child)
		}
	}
}
