package locus

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []Component
}

type leafNode struct {
	components []Component
}

type query struct {
	root QueryNode
}

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, components []Component) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

func newLeafNode(components []Component) *leafNode {
	return &leafNode{components: components}
}

func (n *compositeNode) Evaluate(key GroupKey) bool {
	nodeMask := maskOf(n.components)
	groupMask := key.Mask()

	switch n.op {
	case OpAnd:
		if !groupMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(key) {
				return false
			}
		}
		return true

	case OpOr:
		if len(n.components) > 0 && groupMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(key) {
				return true
			}
		}
		return false

	case OpNot:
		if len(n.children) == 0 {
			return groupMask.ContainsNone(nodeMask)
		}
		for _, child := range n.children {
			if child.Evaluate(key) {
				return false
			}
		}
		return !groupMask.ContainsAny(nodeMask)
	}
	return false
}

func (n *leafNode) Evaluate(key GroupKey) bool {
	return key.HasAllFlags(n.components...)
}

func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	components := make([]Component, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case GroupKey:
			components = append(components, v.ContainedTypes()...)
		case QueryNode:
			children = append(children, v)
		}
	}

	return components, children
}

func (q *query) Evaluate(key GroupKey) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(key)
}
