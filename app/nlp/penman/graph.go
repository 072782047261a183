package penman

import (
	"fmt"
	"strconv"
	"strings"
)

const InstanceRole = ":instance"

type Triple struct {
	Source string `json:"source"`
	Role   string `json:"role"`
	Target string `json:"target"`
}

// Epidatum annotates a triple with layout or alignment information.
// Mode 1 applies to the role, mode 2 to the target, 0 to neither.
type Epidatum interface {
	Mode() int
	TypeName() string
	Repr() string
	Annotations() map[string]any
}

// Push marks the triple whose target opens a new node.
type Push struct {
	Variable string
}

func (p Push) Mode() int        { return 0 }
func (p Push) TypeName() string { return "Push" }
func (p Push) Repr() string     { return "Push(" + p.Variable + ")" }
func (p Push) Annotations() map[string]any {
	return map[string]any{"variable": p.Variable}
}

// Pop marks the last triple of a closed node.
type Pop struct{}

func (Pop) Mode() int                   { return 0 }
func (Pop) TypeName() string            { return "Pop" }
func (Pop) Repr() string                { return "POP" }
func (Pop) Annotations() map[string]any { return map[string]any{} }

// AlignmentMarker is implemented by surface alignment epidata.
type AlignmentMarker interface {
	Epidatum
	Marker() *Alignment
}

// TargetAlignment aligns the target of a triple (a concept or a constant).
type TargetAlignment struct {
	*Alignment
}

func (a TargetAlignment) Mode() int                   { return 2 }
func (a TargetAlignment) TypeName() string            { return "Alignment" }
func (a TargetAlignment) Repr() string                { return alignmentRepr("Alignment", a.Alignment) }
func (a TargetAlignment) Marker() *Alignment          { return a.Alignment }
func (a TargetAlignment) Annotations() map[string]any { return alignmentAnnotations(a.Alignment) }

// RoleAlignment aligns the role of a triple.
type RoleAlignment struct {
	*Alignment
}

func (a RoleAlignment) Mode() int                   { return 1 }
func (a RoleAlignment) TypeName() string            { return "RoleAlignment" }
func (a RoleAlignment) Repr() string                { return alignmentRepr("RoleAlignment", a.Alignment) }
func (a RoleAlignment) Marker() *Alignment          { return a.Alignment }
func (a RoleAlignment) Annotations() map[string]any { return alignmentAnnotations(a.Alignment) }

func alignmentRepr(name string, a *Alignment) string {
	parts := make([]string, 0, len(a.Indices))
	for _, i := range a.Indices {
		parts = append(parts, strconv.Itoa(i))
	}

	indices := "(" + strings.Join(parts, ", ")
	if len(parts) == 1 {
		indices += ","
	}
	indices += ")"

	prefix := "None"
	if a.Prefix != "" {
		prefix = "'" + a.Prefix + "'"
	}

	return fmt.Sprintf("%s(%s, prefix=%s)", name, indices, prefix)
}

func alignmentAnnotations(a *Alignment) map[string]any {
	indices := make([]int, len(a.Indices))
	copy(indices, a.Indices)

	var prefix any
	if a.Prefix != "" {
		prefix = a.Prefix
	}

	return map[string]any{
		"indices": indices,
		"prefix":  prefix,
	}
}

// TripleData is one entry of the ordered epidata mapping.
type TripleData struct {
	Triple  Triple
	Epidata []Epidatum
}

// Graph is the triple view of a decoded tree.
type Graph struct {
	Top      string
	Triples  []Triple
	Epidata  []TripleData
	Metadata map[string]string

	index map[Triple]int
}

func (g *Graph) add(t Triple, data ...Epidatum) int {
	if i, ok := g.index[t]; ok {
		g.Epidata[i].Epidata = append(g.Epidata[i].Epidata, data...)
		return i
	}

	g.Triples = append(g.Triples, t)
	g.Epidata = append(g.Epidata, TripleData{Triple: t, Epidata: data})
	g.index[t] = len(g.Epidata) - 1

	return len(g.Epidata) - 1
}

// Instances returns the :instance triples.
func (g *Graph) Instances() []Triple {
	var result []Triple
	for _, t := range g.Triples {
		if t.Role == InstanceRole {
			result = append(result, t)
		}
	}
	return result
}

// Decode parses a PENMAN string and interprets it as triples.
func Decode(s string) (*Graph, error) {
	tree, err := Parse(s)
	if err != nil {
		return nil, err
	}

	return Interpret(tree), nil
}

// Interpret converts a tree into triples with epidata. Inverted roles (:ARG0-of)
// pointing at variables are normalized to their canonical direction.
func Interpret(tree *Tree) *Graph {
	g := &Graph{
		Metadata: make(map[string]string, len(tree.Metadata)),
		index:    make(map[Triple]int),
	}

	for _, m := range tree.Metadata {
		g.Metadata[m.Key] = m.Value
	}

	if tree.Root == nil {
		return g
	}

	g.Top = tree.Root.Var
	vars := tree.Variables()
	interpretNode(g, tree.Root, vars)

	return g
}

func interpretNode(g *Graph, n *Node, vars map[string]bool) int {
	var data []Epidatum
	if n.Align != nil {
		data = append(data, TargetAlignment{n.Align})
	}

	last := g.add(Triple{Source: n.Var, Role: InstanceRole, Target: n.Concept}, data...)

	for _, e := range n.Edges {
		data = nil
		if e.RoleAlign != nil {
			data = append(data, RoleAlignment{e.RoleAlign})
		}

		if e.Target != nil {
			data = append(data, Push{Variable: e.Target.Var})
			g.add(orient(n.Var, e.Role, e.Target.Var, true), data...)

			last = interpretNode(g, e.Target, vars)
			g.Epidata[last].Epidata = append(g.Epidata[last].Epidata, Pop{})
			continue
		}

		if e.ValueAlign != nil {
			data = append(data, TargetAlignment{e.ValueAlign})
		}
		last = g.add(orient(n.Var, e.Role, e.Value, vars[e.Value]), data...)
	}

	return last
}

var nonInvertedOf = map[string]bool{
	":consist-of":        true,
	":prep-out-of":       true,
	":prep-on-behalf-of": true,
}

func orient(source, role, target string, isVariable bool) Triple {
	if isVariable && strings.HasSuffix(role, "-of") && !nonInvertedOf[role] {
		return Triple{Source: target, Role: strings.TrimSuffix(role, "-of"), Target: source}
	}

	return Triple{Source: source, Role: role, Target: target}
}
