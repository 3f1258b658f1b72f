package models

// GraphNode is one workflow step.
type GraphNode struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description,omitempty"`
	IsStart     bool   `json:"is_start"`
	IsEnd       bool   `json:"is_end"`
	ToDelete    bool   `json:"to_delete,omitempty"`
	PositionX   int    `json:"position_x"`
	PositionY   int    `json:"position_y"`
}

// GraphEdge is a transition between steps. A nil Source marks a synthetic
// start edge, a nil Target a synthetic end edge.
type GraphEdge struct {
	ID       ID     `json:"id"`
	Source   *ID    `json:"source"`
	Target   *ID    `json:"target"`
	Name     string `json:"name,omitempty"`
	ToDelete bool   `json:"to_delete,omitempty"`
}

// Graph is the node/edge collection of one workflow.
type Graph struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
}

// ActiveNodes returns nodes not marked for deletion, in input order.
func (g *Graph) ActiveNodes() []*GraphNode {
	return ActiveNodes(g.Nodes)
}

// ActiveEdges returns edges not marked for deletion, in input order.
func (g *Graph) ActiveEdges() []*GraphEdge {
	return ActiveEdges(g.Edges)
}

// Node finds a node by id, including nodes marked for deletion.
func (g *Graph) Node(id ID) (*GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return nil, false
}

// Edge finds an edge by id.
func (g *Graph) Edge(id ID) (*GraphEdge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}

	return nil, false
}

// Clone returns a deep copy. Nil entries are dropped.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return &Graph{Nodes: []*GraphNode{}, Edges: []*GraphEdge{}}
	}

	out := &Graph{
		Nodes: make([]*GraphNode, 0, len(g.Nodes)),
		Edges: make([]*GraphEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		if n == nil {
			continue
		}

		c := *n
		out.Nodes = append(out.Nodes, &c)
	}

	for _, e := range g.Edges {
		if e == nil {
			continue
		}

		out.Edges = append(out.Edges, e.Clone())
	}

	return out
}

// Clone copies the edge including its endpoint pointers.
func (e *GraphEdge) Clone() *GraphEdge {
	if e == nil {
		return nil
	}

	c := *e
	if e.Source != nil {
		c.Source = IDRef(*e.Source)
	}

	if e.Target != nil {
		c.Target = IDRef(*e.Target)
	}

	return &c
}

// ActiveNodes filters out nodes marked for deletion.
func ActiveNodes(nodes []*GraphNode) []*GraphNode {
	active := make([]*GraphNode, 0, len(nodes))

	for _, n := range nodes {
		if n != nil && !n.ToDelete {
			active = append(active, n)
		}
	}

	return active
}

// ActiveEdges filters out edges marked for deletion.
func ActiveEdges(edges []*GraphEdge) []*GraphEdge {
	active := make([]*GraphEdge, 0, len(edges))

	for _, e := range edges {
		if e != nil && !e.ToDelete {
			active = append(active, e)
		}
	}

	return active
}

// Compact drops every entity marked for deletion and every edge left pointing
// at a dropped node. Used right before persisting.
func (g *Graph) Compact() *Graph {
	out := &Graph{Nodes: []*GraphNode{}, Edges: []*GraphEdge{}}
	if g == nil {
		return out
	}

	kept := make(map[ID]bool)

	for _, n := range ActiveNodes(g.Nodes) {
		c := *n
		out.Nodes = append(out.Nodes, &c)
		kept[n.ID] = true
	}

	for _, e := range ActiveEdges(g.Edges) {
		if e.Source != nil && !kept[*e.Source] {
			continue
		}

		if e.Target != nil && !kept[*e.Target] {
			continue
		}

		out.Edges = append(out.Edges, e.Clone())
	}

	return out
}

// AssignIDs replaces every temporary id with one produced by next and
// rewrites edge endpoints accordingly. It returns the temporary→persisted mapping.
func (g *Graph) AssignIDs(next func() (int64, error)) (map[ID]ID, error) {
	mapping := make(map[ID]ID)

	for _, n := range g.Nodes {
		if !n.ID.IsTemporary() {
			continue
		}

		v, err := next()
		if err != nil {
			return nil, err
		}

		mapping[n.ID] = PersistedID(v)
		n.ID = mapping[n.ID]
	}

	for _, e := range g.Edges {
		if e.ID.IsTemporary() {
			v, err := next()
			if err != nil {
				return nil, err
			}

			mapping[e.ID] = PersistedID(v)
			e.ID = mapping[e.ID]
		}

		if e.Source != nil {
			if mapped, ok := mapping[*e.Source]; ok {
				e.Source = IDRef(mapped)
			}
		}

		if e.Target != nil {
			if mapped, ok := mapping[*e.Target]; ok {
				e.Target = IDRef(mapped)
			}
		}
	}

	return mapping, nil
}

// MaxPersistedID returns the largest integer id used by nodes or edges.
func (g *Graph) MaxPersistedID() int64 {
	var highest int64

	for _, n := range g.Nodes {
		if v, ok := n.ID.Int64(); ok && v > highest {
			highest = v
		}
	}

	for _, e := range g.Edges {
		if v, ok := e.ID.Int64(); ok && v > highest {
			highest = v
		}
	}

	return highest
}
