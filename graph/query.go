package graph

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kadedb/kadedb/resultset"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// ExecuteQuery parses and runs one of the graph query language's four
// forms against store:
//
//	TRAVERSE <g> FROM <id> (BFS|DFS) [LIMIT N]
//	MATCH <g> (a)-[:TYPE]->(b) [WHERE a = <id>] RETURN b
//	SHORTEST_PATH <g> FROM <u> TO <v>
//	CONNECTED <g> FROM <u> TO <v>
func ExecuteQuery(store *Store, text string) (*resultset.ResultSet, error) {
	toks := tokenizeQuery(text)
	if len(toks) == 0 {
		return nil, status.InvalidArgumentf("graph query: empty query")
	}
	p := &queryParser{toks: toks}
	verb := strings.ToUpper(p.peek())
	switch verb {
	case "TRAVERSE":
		return p.traverse(store)
	case "MATCH":
		return p.match(store)
	case "SHORTEST_PATH":
		return p.shortestPath(store)
	case "CONNECTED":
		return p.connected(store)
	default:
		return nil, status.InvalidArgumentf("graph query: unknown verb %q", verb)
	}
}

func tokenizeQuery(text string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '(' || r == ')' || r == '[' || r == ']' || r == '-' || r == '>' || r == ':' || r == ',':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type queryParser struct {
	toks []string
	pos  int
}

func (p *queryParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *queryParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *queryParser) expectUpper(want string) error {
	got := strings.ToUpper(p.next())
	if got != want {
		return status.InvalidArgumentf("graph query: expected %q, got %q", want, got)
	}
	return nil
}

func (p *queryParser) parseNodeID() (NodeID, error) {
	tok := p.next()
	n, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, status.InvalidArgumentf("graph query: invalid node id %q", tok)
	}
	return NodeID(n), nil
}

func (p *queryParser) traverse(store *Store) (*resultset.ResultSet, error) {
	p.next() // TRAVERSE
	graphName := p.next()
	if err := p.expectUpper("FROM"); err != nil {
		return nil, err
	}
	start, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}
	mode := strings.ToUpper(p.next())
	limit := 0
	if strings.ToUpper(p.peek()) == "LIMIT" {
		p.next()
		n, err := strconv.Atoi(p.next())
		if err != nil {
			return nil, status.InvalidArgumentf("graph query: invalid LIMIT")
		}
		limit = n
	}

	var order []NodeID
	switch mode {
	case "BFS":
		order, err = store.BFS(graphName, start, limit)
	case "DFS":
		order, err = store.DFS(graphName, start, limit)
	default:
		return nil, status.InvalidArgumentf("graph query: unknown traversal mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	rs := resultset.New([]string{"node_id"}, []value.Type{value.Integer})
	for _, id := range order {
		if err := rs.AddRow(resultset.ResultRow{value.NewInteger(int64(id))}); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// match handles: MATCH <g> (a)-[:TYPE]->(b) [WHERE a = <id>] RETURN b
func (p *queryParser) match(store *Store) (*resultset.ResultSet, error) {
	p.next() // MATCH
	graphName := p.next()

	if err := p.expectLiteral("("); err != nil {
		return nil, err
	}
	p.next() // left variable name, unused beyond shape
	if err := p.expectLiteral(")"); err != nil {
		return nil, err
	}
	if err := p.expectLiteral("-"); err != nil {
		return nil, err
	}
	if err := p.expectLiteral("["); err != nil {
		return nil, err
	}
	if err := p.expectLiteral(":"); err != nil {
		return nil, err
	}
	edgeType := p.next()
	if err := p.expectLiteral("]"); err != nil {
		return nil, err
	}
	if err := p.expectLiteral("-"); err != nil {
		return nil, err
	}
	if err := p.expectLiteral(">"); err != nil {
		return nil, err
	}
	if err := p.expectLiteral("("); err != nil {
		return nil, err
	}
	p.next() // right variable name
	if err := p.expectLiteral(")"); err != nil {
		return nil, err
	}

	var fromFilter *NodeID
	if strings.ToUpper(p.peek()) == "WHERE" {
		p.next()
		p.next() // variable name (the "a" side)
		if err := p.expectLiteral("="); err != nil {
			return nil, err
		}
		id, err := p.parseNodeID()
		if err != nil {
			return nil, err
		}
		fromFilter = &id
	}
	if err := p.expectUpper("RETURN"); err != nil {
		return nil, err
	}
	p.next() // returned variable name, always "b" in this grammar

	rs := resultset.New([]string{"b"}, []value.Type{value.Integer})

	var fromIDs []NodeID
	if fromFilter != nil {
		fromIDs = []NodeID{*fromFilter}
	} else {
		st := store
		st.mu.Lock()
		g, err := st.get(graphName)
		if err != nil {
			st.mu.Unlock()
			return nil, err
		}
		for id := range g.nodes {
			fromIDs = append(fromIDs, id)
		}
		st.mu.Unlock()
		sort.Slice(fromIDs, func(i, j int) bool { return fromIDs[i] < fromIDs[j] })
	}

	for _, from := range fromIDs {
		edgeIDs, err := store.EdgeIDsOut(graphName, from)
		if err != nil {
			return nil, err
		}
		for _, eid := range edgeIDs {
			e, err := store.GetEdge(graphName, eid)
			if err != nil {
				return nil, err
			}
			if e.Type != edgeType {
				continue
			}
			if err := rs.AddRow(resultset.ResultRow{value.NewInteger(int64(e.To))}); err != nil {
				return nil, err
			}
		}
	}
	return rs, nil
}

func (p *queryParser) expectLiteral(want string) error {
	got := p.next()
	if got != want {
		return status.InvalidArgumentf("graph query: expected %q, got %q", want, got)
	}
	return nil
}

func (p *queryParser) shortestPath(store *Store) (*resultset.ResultSet, error) {
	p.next() // SHORTEST_PATH
	graphName := p.next()
	if err := p.expectUpper("FROM"); err != nil {
		return nil, err
	}
	u, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}
	if err := p.expectUpper("TO"); err != nil {
		return nil, err
	}
	v, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}

	path, err := store.ShortestPath(graphName, u, v)
	if err != nil {
		return nil, err
	}
	rs := resultset.New([]string{"step", "node_id"}, []value.Type{value.Integer, value.Integer})
	for i, id := range path {
		if err := rs.AddRow(resultset.ResultRow{value.NewInteger(int64(i)), value.NewInteger(int64(id))}); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

func (p *queryParser) connected(store *Store) (*resultset.ResultSet, error) {
	p.next() // CONNECTED
	graphName := p.next()
	if err := p.expectUpper("FROM"); err != nil {
		return nil, err
	}
	u, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}
	if err := p.expectUpper("TO"); err != nil {
		return nil, err
	}
	v, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}

	ok, err := store.Connected(graphName, u, v)
	if err != nil {
		return nil, err
	}
	rs := resultset.New([]string{"value"}, []value.Type{value.Boolean})
	if err := rs.AddRow(resultset.ResultRow{value.NewBoolean(ok)}); err != nil {
		return nil, err
	}
	return rs, nil
}
