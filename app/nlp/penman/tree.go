// Package penman reads and writes AMR graphs in PENMAN notation.
package penman

import (
	"strconv"
	"strings"
)

// Alignment is a surface alignment marker such as ~e.1,2.
type Alignment struct {
	Prefix  string
	Indices []int
}

func (a *Alignment) String() string {
	if a == nil {
		return ""
	}

	parts := make([]string, 0, len(a.Indices))
	for _, i := range a.Indices {
		parts = append(parts, strconv.Itoa(i))
	}

	return "~" + a.Prefix + strings.Join(parts, ",")
}

// Node is a bracketed graph node: a variable, its concept and outgoing edges.
type Node struct {
	Var     string
	Concept string
	Align   *Alignment
	Edges   []*Edge
}

// Edge links a node to either a child node (Target) or a constant (Value).
type Edge struct {
	Role       string
	RoleAlign  *Alignment
	Target     *Node
	Value      string
	ValueAlign *Alignment
}

type Meta struct {
	Key   string
	Value string
}

// Tree is a parsed PENMAN string: metadata comments plus the top node.
type Tree struct {
	Metadata []Meta
	Root     *Node
}

// Walk visits every node depth-first in document order. path is the ISI address of the
// node: the top node is "1" and the k-th edge of a node at p leads to p.k.
func (t *Tree) Walk(fn func(n *Node, path string)) {
	if t.Root == nil {
		return
	}

	var walk func(n *Node, path string)
	walk = func(n *Node, path string) {
		fn(n, path)
		for k, e := range n.Edges {
			if e.Target != nil {
				walk(e.Target, path+"."+strconv.Itoa(k+1))
			}
		}
	}

	walk(t.Root, "1")
}

// Variables returns the set of variables introduced by the tree.
func (t *Tree) Variables() map[string]bool {
	vars := make(map[string]bool)

	t.Walk(func(n *Node, _ string) {
		vars[n.Var] = true
	})

	return vars
}

// MetaValue returns the first metadata value for key.
func (t *Tree) MetaValue(key string) (string, bool) {
	for _, m := range t.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}

	return "", false
}

// SetMeta replaces the value of key or appends it.
func (t *Tree) SetMeta(key, value string) {
	for i := range t.Metadata {
		if t.Metadata[i].Key == key {
			t.Metadata[i].Value = value
			return
		}
	}

	t.Metadata = append(t.Metadata, Meta{Key: key, Value: value})
}

const indent = "    "

// Format serializes the tree with metadata comments and four-space indentation.
func Format(t *Tree) string {
	var builder strings.Builder

	for _, m := range t.Metadata {
		builder.WriteString("# ::")
		builder.WriteString(m.Key)
		// a value must stay on its comment line
		if value := strings.Join(strings.Fields(m.Value), " "); value != "" {
			builder.WriteString(" ")
			builder.WriteString(value)
		}
		builder.WriteString("\n")
	}

	if t.Root != nil {
		formatNode(&builder, t.Root, 0)
	}

	return builder.String()
}

func formatNode(b *strings.Builder, n *Node, depth int) {
	b.WriteString("(")
	b.WriteString(n.Var)
	if n.Concept != "" {
		b.WriteString(" / ")
		b.WriteString(n.Concept)
		b.WriteString(n.Align.String())
	}

	for _, e := range n.Edges {
		b.WriteString("\n")
		b.WriteString(strings.Repeat(indent, depth+1))
		b.WriteString(e.Role)
		b.WriteString(e.RoleAlign.String())
		b.WriteString(" ")

		if e.Target != nil {
			formatNode(b, e.Target, depth+1)
			continue
		}

		b.WriteString(e.Value)
		b.WriteString(e.ValueAlign.String())
	}

	b.WriteString(")")
}
