// Package graph implements KadeDB's labeled property graph store: node
// and edge tables with ordered adjacency indices, BFS/DFS, shortest
// path, and a tiny query language layered on top.
package graph

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// NodeID identifies a node within a graph.
type NodeID uint64

// EdgeID identifies an edge within a graph.
type EdgeID uint64

// Node is a labeled, property-bearing vertex.
type Node struct {
	ID    NodeID
	Label string
	Props map[string]value.Value
}

// Edge is a labeled, property-bearing, directed connection between two
// nodes.
type Edge struct {
	ID    EdgeID
	From  NodeID
	To    NodeID
	Type  string
	Props map[string]value.Value
}

func cloneProps(p map[string]value.Value) map[string]value.Value {
	if p == nil {
		return nil
	}
	out := make(map[string]value.Value, len(p))
	for k, v := range p {
		out[k] = v.Clone()
	}
	return out
}

func (n Node) clone() Node {
	return Node{ID: n.ID, Label: n.Label, Props: cloneProps(n.Props)}
}

func (e Edge) clone() Edge {
	return Edge{ID: e.ID, From: e.From, To: e.To, Type: e.Type, Props: cloneProps(e.Props)}
}

type graph struct {
	nodes  map[NodeID]Node
	edges  map[EdgeID]Edge
	outAdj map[NodeID][]EdgeID
	inAdj  map[NodeID][]EdgeID
}

func newGraph() *graph {
	return &graph{
		nodes:  make(map[NodeID]Node),
		edges:  make(map[EdgeID]Edge),
		outAdj: make(map[NodeID][]EdgeID),
		inAdj:  make(map[NodeID][]EdgeID),
	}
}

// Store holds every graph created through it.
type Store struct {
	mu     sync.Mutex
	graphs map[string]*graph
}

// New returns an empty Store.
func New() *Store {
	return &Store{graphs: make(map[string]*graph)}
}

// CreateGraph registers an empty graph named name.
func (st *Store) CreateGraph(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.graphs[name]; ok {
		return status.AlreadyExistsf("graph: %q already exists", name)
	}
	st.graphs[name] = newGraph()
	return nil
}

// DropGraph removes name and every node/edge it owned.
func (st *Store) DropGraph(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.graphs[name]; !ok {
		return status.NotFoundf("graph: %q not found", name)
	}
	delete(st.graphs, name)
	return nil
}

// ListGraphs returns every graph name, sorted for deterministic output.
func (st *Store) ListGraphs() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.graphs))
	for name := range st.graphs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (st *Store) get(name string) (*graph, error) {
	g, ok := st.graphs[name]
	if !ok {
		return nil, status.NotFoundf("graph: %q not found", name)
	}
	return g, nil
}

// PutNode inserts or replaces n by its ID.
func (st *Store) PutNode(name string, n Node) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return err
	}
	g.nodes[n.ID] = n.clone()
	return nil
}

// EraseNode removes id and every edge incident to it (out and in), with
// adjacency cleaned up.
func (st *Store) EraseNode(name string, id NodeID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return err
	}
	if _, ok := g.nodes[id]; !ok {
		return status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	incident := make(map[EdgeID]bool)
	for _, eid := range g.outAdj[id] {
		incident[eid] = true
	}
	for _, eid := range g.inAdj[id] {
		incident[eid] = true
	}
	for eid := range incident {
		g.removeEdgeAdjacency(eid)
		delete(g.edges, eid)
	}
	delete(g.outAdj, id)
	delete(g.inAdj, id)
	delete(g.nodes, id)
	return nil
}

func (g *graph) removeEdgeAdjacency(id EdgeID) {
	e, ok := g.edges[id]
	if !ok {
		return
	}
	g.outAdj[e.From] = removeEdgeID(g.outAdj[e.From], id)
	g.inAdj[e.To] = removeEdgeID(g.inAdj[e.To], id)
}

func removeEdgeID(list []EdgeID, id EdgeID) []EdgeID {
	for i, e := range list {
		if e == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// PutEdge inserts or replaces e by its ID. Both endpoints must already
// exist. Replacing an edge first removes its old adjacency entries, then
// inserts the new ones, which changes the edge's position in the
// adjacency order to "last" at its new endpoints.
func (st *Store) PutEdge(name string, e Edge) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return err
	}
	if _, ok := g.nodes[e.From]; !ok {
		return status.InvalidArgumentf("graph: edge %d references missing from-node %d", e.ID, e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return status.InvalidArgumentf("graph: edge %d references missing to-node %d", e.ID, e.To)
	}
	if _, exists := g.edges[e.ID]; exists {
		g.removeEdgeAdjacency(e.ID)
	}
	g.edges[e.ID] = e.clone()
	g.outAdj[e.From] = append(g.outAdj[e.From], e.ID)
	g.inAdj[e.To] = append(g.inAdj[e.To], e.ID)
	return nil
}

// EraseEdge removes id from both adjacency indices and the edge table.
func (st *Store) EraseEdge(name string, id EdgeID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return err
	}
	if _, ok := g.edges[id]; !ok {
		return status.NotFoundf("graph: edge %d not found in %q", id, name)
	}
	g.removeEdgeAdjacency(id)
	delete(g.edges, id)
	return nil
}

// GetNode returns a clone of id's node.
func (st *Store) GetNode(name string, id NodeID) (Node, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return Node{}, err
	}
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	return n.clone(), nil
}

// GetEdge returns a clone of id's edge.
func (st *Store) GetEdge(name string, id EdgeID) (Edge, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return Edge{}, err
	}
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, status.NotFoundf("graph: edge %d not found in %q", id, name)
	}
	return e.clone(), nil
}

// EdgeIDsOut returns id's outgoing edge IDs in insertion order. NotFound
// if the graph or node is missing; empty (not an error) if the node has
// no outgoing edges.
func (st *Store) EdgeIDsOut(name string, id NodeID) ([]EdgeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[id]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	return append([]EdgeID(nil), g.outAdj[id]...), nil
}

// EdgeIDsIn is EdgeIDsOut's incoming-edge analogue.
func (st *Store) EdgeIDsIn(name string, id NodeID) ([]EdgeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[id]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	return append([]EdgeID(nil), g.inAdj[id]...), nil
}

// NeighborsOut returns the out-neighbor NodeIDs of id, in adjacency
// (insertion) order.
func (st *Store) NeighborsOut(name string, id NodeID) ([]NodeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[id]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	out := make([]NodeID, len(g.outAdj[id]))
	for i, eid := range g.outAdj[id] {
		out[i] = g.edges[eid].To
	}
	return out, nil
}

// NeighborsIn is NeighborsOut's incoming-edge analogue.
func (st *Store) NeighborsIn(name string, id NodeID) ([]NodeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[id]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", id, name)
	}
	in := make([]NodeID, len(g.inAdj[id]))
	for i, eid := range g.inAdj[id] {
		in[i] = g.edges[eid].From
	}
	return in, nil
}

// BFS visits name's nodes breadth-first from start, following out-edges
// in stored adjacency order, and returns the visited NodeIDs in visit
// order. maxNodes=0 means unbounded; otherwise traversal stops once
// maxNodes nodes have been emitted.
func (st *Store) BFS(name string, start NodeID, maxNodes int) ([]NodeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[start]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", start, name)
	}

	seen := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	var order []NodeID
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		if maxNodes > 0 && len(order) >= maxNodes {
			break
		}
		for _, eid := range g.outAdj[n] {
			next := g.edges[eid].To
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return order, nil
}

// DFS visits name's nodes depth-first from start using an explicit stack,
// pushing neighbors in reverse stored order so the first stored neighbor
// is the first emitted, and returns the visited NodeIDs in visit order.
func (st *Store) DFS(name string, start NodeID, maxNodes int) ([]NodeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[start]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", start, name)
	}

	seen := make(map[NodeID]bool)
	stack := []NodeID{start}
	var order []NodeID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		order = append(order, n)
		if maxNodes > 0 && len(order) >= maxNodes {
			break
		}
		adj := g.outAdj[n]
		for i := len(adj) - 1; i >= 0; i-- {
			next := g.edges[adj[i]].To
			if !seen[next] {
				stack = append(stack, next)
			}
		}
	}
	return order, nil
}

// ShortestPath returns the BFS shortest path (over out-edges) from u to
// v as a NodeID sequence starting with u and ending with v, or an empty
// slice if v is unreachable from u.
func (st *Store) ShortestPath(name string, u, v NodeID) ([]NodeID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return nil, err
	}
	if _, ok := g.nodes[u]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", u, name)
	}
	if _, ok := g.nodes[v]; !ok {
		return nil, status.NotFoundf("graph: node %d not found in %q", v, name)
	}
	return shortestPath(g, u, v), nil
}

func shortestPath(g *graph, u, v NodeID) []NodeID {
	if u == v {
		return []NodeID{u}
	}
	prev := map[NodeID]NodeID{u: u}
	seen := map[NodeID]bool{u: true}
	queue := []NodeID{u}
	found := false
	for len(queue) > 0 && !found {
		n := queue[0]
		queue = queue[1:]
		for _, eid := range g.outAdj[n] {
			next := g.edges[eid].To
			if seen[next] {
				continue
			}
			seen[next] = true
			prev[next] = n
			if next == v {
				found = true
				break
			}
			queue = append(queue, next)
		}
	}
	if !found {
		return nil
	}
	path := []NodeID{v}
	for path[len(path)-1] != u {
		path = append(path, prev[path[len(path)-1]])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Connected reports whether v is reachable from u via out-edges.
func (st *Store) Connected(name string, u, v NodeID) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	g, err := st.get(name)
	if err != nil {
		return false, err
	}
	if _, ok := g.nodes[u]; !ok {
		return false, status.NotFoundf("graph: node %d not found in %q", u, name)
	}
	if _, ok := g.nodes[v]; !ok {
		return false, status.NotFoundf("graph: node %d not found in %q", v, name)
	}
	return len(shortestPath(g, u, v)) > 0, nil
}
