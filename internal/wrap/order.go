package wrap

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// node is one subproject in the fetch-order dependency graph: subproject A
// depends on subproject B if A's wrap [provide] table, or a dependency()
// fallback from A's project() into a wrap, needs B already fetched.
type node struct {
	id   int64
	name string
}

func (n *node) ID() int64 { return n.id }

// Order computes a fetch order for subprojects given their pairwise
// dependencies, breaking cycles the same way cmd/distri/bump.go's bumpctx
// does: a directed graph is built, topologically sorted, and if sorting
// fails because of a cycle, every outgoing edge from each node in the
// offending strongly-connected component is dropped before re-sorting.
// Wrap fetch cycles are rare (two subprojects each declaring the other as
// a fallback dependency) but not impossible, and breaking them here keeps
// one stray .wrap file from deadlocking setup entirely.
func Order(deps map[string][]string) ([]string, error) {
	g := simple.NewDirectedGraph()
	nodes := make(map[string]*node)
	var nextID int64
	nodeFor := func(name string) *node {
		if n, ok := nodes[name]; ok {
			return n
		}
		n := &node{id: nextID, name: name}
		nextID++
		nodes[name] = n
		g.AddNode(n)
		return n
	}
	for name := range deps {
		nodeFor(name)
	}
	for name, ds := range deps {
		from := nodeFor(name)
		for _, d := range ds {
			if d == name {
				continue
			}
			to := nodeFor(d)
			g.SetEdge(g.NewEdge(from, to))
		}
	}

	if _, err := topo.Sort(g); err != nil {
		uo, ok := err.(topo.Unorderable)
		if !ok {
			return nil, err
		}
		for _, component := range uo {
			for _, n := range component {
				from := g.From(n.ID())
				for from.Next() {
					g.RemoveEdge(n.ID(), from.Node().ID())
				}
			}
		}
		if _, err := topo.Sort(g); err != nil {
			return nil, fmt.Errorf("wrap: could not break fetch-order cycles: %w", err)
		}
	}

	sorted, err := topo.Sort(g)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		out = append(out, sorted[i].(*node).name)
	}
	return out, nil
}
