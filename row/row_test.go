package row_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/value"
)

func TestRowDeepCopy(t *testing.T) {
	r1 := row.NewRow([]value.Value{value.NewInteger(1), value.NewString("a")})
	r2 := r1.Clone()
	r2.Cells[1] = value.NewString("mutated")

	require.Equal(t, "a", r1.Cells[1].ToString())
	assert.Equal(t, "mutated", r2.Cells[1].ToString())
}

func TestRowShallowRoundTrip(t *testing.T) {
	r := row.NewRow([]value.Value{value.NewInteger(7)})
	rs := row.FromClones(r)
	back := rs.ToRowDeep()
	assert.True(t, back.At(0).Equals(r.At(0)))
}

func TestDeepCopyDocument(t *testing.T) {
	d := row.Document{"name": value.NewString("Ada")}
	c := row.DeepCopyDocument(d)
	c["name"] = value.NewString("Grace")
	assert.Equal(t, "Ada", d["name"].ToString())
	assert.Equal(t, "Grace", c["name"].ToString())
}
