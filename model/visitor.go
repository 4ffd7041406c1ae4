package model

// Node wraps a Persistable together with its in-memory children, forming the
// tree the archive's bulk writer/remover walks. An Event's tree, for
// example, has Origin and Pick nodes as children, and each Origin node has
// its Magnitude nodes as children in turn.
type Node struct {
	Item     Persistable
	Children []*Node
}

// NewNode builds a Node for item with the given children already attached.
func NewNode(item Persistable, children ...*Node) *Node {
	return &Node{Item: item, Children: children}
}

// Visitor is called once per Node during a tree walk. Returning false tells
// the walker to skip n's children (the Go analogue of the source's
// IGNORE_CHILDS hint acting on a single call rather than the whole class).
type Visitor interface {
	Visit(n *Node) (descend bool)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(n *Node) bool

func (f VisitorFunc) Visit(n *Node) bool { return f(n) }

// Walk performs a pre-order (parent before children) traversal of root,
// calling v at every node. Used for inserts and updates, which must create
// a parent row before any child row that references it by oid.
func Walk(root *Node, v Visitor) {
	if root == nil {
		return
	}
	if !v.Visit(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, v)
	}
}

// WalkPostOrder performs a post-order (children before parent) traversal,
// used for deletes, which must remove every child row before the parent row
// it references. v's return value is ignored here: a node's children have
// already been visited by the time v sees the node.
func WalkPostOrder(root *Node, v Visitor) {
	if root == nil {
		return
	}
	for _, c := range root.Children {
		WalkPostOrder(c, v)
	}
	v.Visit(root)
}
