package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/graph"
)

func TestExecuteQueryShortestPath(t *testing.T) {
	st := buildChain(t)
	rs, err := graph.ExecuteQuery(st, "SHORTEST_PATH g FROM 1 TO 4")
	require.NoError(t, err)
	require.Equal(t, 4, rs.NumRows())
	require.Equal(t, int64(0), rs.At(0, 0).RawInt())
	require.Equal(t, int64(1), rs.At(0, 1).RawInt())
	require.Equal(t, int64(3), rs.At(3, 0).RawInt())
	require.Equal(t, int64(4), rs.At(3, 1).RawInt())
}

func TestExecuteQueryConnected(t *testing.T) {
	st := buildChain(t)
	rs, err := graph.ExecuteQuery(st, "CONNECTED g FROM 4 TO 1")
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
	require.False(t, rs.At(0, 0).RawBool())
}

func TestExecuteQueryTraverseBFS(t *testing.T) {
	st := buildChain(t)
	rs, err := graph.ExecuteQuery(st, "TRAVERSE g FROM 1 BFS LIMIT 2")
	require.NoError(t, err)
	require.Equal(t, 2, rs.NumRows())
	require.Equal(t, int64(1), rs.At(0, 0).RawInt())
	require.Equal(t, int64(2), rs.At(1, 0).RawInt())
}

func TestExecuteQueryMatch(t *testing.T) {
	st := buildChain(t)
	rs, err := graph.ExecuteQuery(st, "MATCH g (a)-[:next]->(b) WHERE a = 1 RETURN b")
	require.NoError(t, err)
	require.Equal(t, 1, rs.NumRows())
	require.Equal(t, int64(2), rs.At(0, 0).RawInt())
}

func TestExecuteQueryMatchUnfilteredIsDeterministic(t *testing.T) {
	st := buildChain(t)
	for i := 0; i < 5; i++ {
		rs, err := graph.ExecuteQuery(st, "MATCH g (a)-[:next]->(b) RETURN b")
		require.NoError(t, err)
		require.Equal(t, 3, rs.NumRows())
		require.Equal(t, int64(2), rs.At(0, 0).RawInt())
		require.Equal(t, int64(3), rs.At(1, 0).RawInt())
		require.Equal(t, int64(4), rs.At(2, 0).RawInt())
	}
}
