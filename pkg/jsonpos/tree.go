package jsonpos

// Kind enumerates the JSON value variants stored in a Tree.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// NodeID indexes a node inside a Tree. Identity is positional: two
// structurally equal objects at different offsets receive different ids.
type NodeID int

// NoNode is returned by lookups that fail.
const NoNode NodeID = -1

// Node is one parsed JSON value. Only the fields relevant to Kind are set.
type Node struct {
	Kind    Kind
	Bool    bool
	Number  float64
	Literal string // raw number text as it appeared in the source
	Str     string
	Elems   []NodeID
	Props   []Property
	Line    int
	Column  int
}

// Property is one key/value pair of an object node. Line and Column point at
// the first character of the value, not at the key.
type Property struct {
	Key    string
	Value  NodeID
	Line   int
	Column int
}

// Tree is the flat node table produced by Parse together with the position
// side maps.
type Tree struct {
	nodes         []Node
	root          NodeID
	objectLines   map[NodeID]int
	propertyLines map[NodeID]map[string]int
}

func newTree() *Tree {
	return &Tree{
		root:          NoNode,
		objectLines:   make(map[NodeID]int),
		propertyLines: make(map[NodeID]map[string]int),
	}
}

func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	id := NodeID(len(t.nodes) - 1)
	if n.Kind == Object {
		t.objectLines[id] = n.Line
		t.propertyLines[id] = make(map[string]int)
	}
	return id
}

func (t *Tree) setProperty(obj NodeID, prop Property) {
	node := &t.nodes[obj]
	t.propertyLines[obj][prop.Key] = prop.Line
	for i := range node.Props {
		if node.Props[i].Key == prop.Key {
			node.Props[i] = prop
			return
		}
	}
	node.Props = append(node.Props, prop)
}

// Root returns the id of the top-level value.
func (t *Tree) Root() NodeID {
	if t == nil {
		return NoNode
	}
	return t.root
}

// Len reports the number of nodes in the table.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Node returns the node stored under id. Unknown ids yield a zero Null node.
func (t *Tree) Node(id NodeID) Node {
	if !t.valid(id) {
		return Node{}
	}
	return t.nodes[id]
}

// Kind returns the kind of the node stored under id.
func (t *Tree) Kind(id NodeID) Kind {
	return t.Node(id).Kind
}

// ObjectLine returns the line at which the object id started.
func (t *Tree) ObjectLine(id NodeID) (int, bool) {
	if t == nil {
		return 0, false
	}
	line, ok := t.objectLines[id]
	return line, ok
}

// PropertyLine returns the line at which the value of obj[key] started.
func (t *Tree) PropertyLine(obj NodeID, key string) (int, bool) {
	if t == nil {
		return 0, false
	}
	lines, ok := t.propertyLines[obj]
	if !ok {
		return 0, false
	}
	line, ok := lines[key]
	return line, ok
}

// Get looks up key in the object obj.
func (t *Tree) Get(obj NodeID, key string) (NodeID, bool) {
	if !t.valid(obj) || t.nodes[obj].Kind != Object {
		return NoNode, false
	}
	for _, prop := range t.nodes[obj].Props {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return NoNode, false
}

// Keys returns the property names of obj in source order.
func (t *Tree) Keys(obj NodeID) []string {
	if !t.valid(obj) || t.nodes[obj].Kind != Object {
		return nil
	}
	props := t.nodes[obj].Props
	keys := make([]string, 0, len(props))
	for _, prop := range props {
		keys = append(keys, prop.Key)
	}
	return keys
}

// StringValue returns the string held by id.
func (t *Tree) StringValue(id NodeID) (string, bool) {
	n := t.Node(id)
	if n.Kind != String || !t.valid(id) {
		return "", false
	}
	return n.Str, true
}

// BoolValue returns the boolean held by id.
func (t *Tree) BoolValue(id NodeID) (bool, bool) {
	n := t.Node(id)
	if n.Kind != Bool || !t.valid(id) {
		return false, false
	}
	return n.Bool, true
}

// Value converts the subtree rooted at id into plain Go values: map[string]any,
// []any, float64, string, bool or nil.
func (t *Tree) Value(id NodeID) any {
	if !t.valid(id) {
		return nil
	}
	n := t.nodes[id]
	switch n.Kind {
	case Bool:
		return n.Bool
	case Number:
		return n.Number
	case String:
		return n.Str
	case Array:
		out := make([]any, 0, len(n.Elems))
		for _, elem := range n.Elems {
			out = append(out, t.Value(elem))
		}
		return out
	case Object:
		out := make(map[string]any, len(n.Props))
		for _, prop := range n.Props {
			out[prop.Key] = t.Value(prop.Value)
		}
		return out
	default:
		return nil
	}
}

func (t *Tree) valid(id NodeID) bool {
	return t != nil && id >= 0 && int(id) < len(t.nodes)
}
