package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/value"
)

func TestTotalOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b value.Value
		want int
	}{
		{"null-lt-int", value.NewNull(), value.NewInteger(0), -1},
		{"null-eq-null", value.NewNull(), value.NewNull(), 0},
		{"int-lt-float-numeric", value.NewInteger(1), value.NewFloat(1.5), -1},
		{"int-eq-float-numeric", value.NewInteger(2), value.NewFloat(2.0), 0},
		{"string-byte-order", value.NewString("a"), value.NewString("b"), -1},
		{"bool-false-lt-true", value.NewBoolean(false), value.NewBoolean(true), -1},
		{"string-gt-float-rank", value.NewString("a"), value.NewFloat(999), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Compare(tt.b)
			if tt.want < 0 {
				assert.Negative(t, got)
			} else if tt.want > 0 {
				assert.Positive(t, got)
			} else {
				assert.Zero(t, got)
			}
			// antisymmetry
			assert.Equal(t, sign(got), -sign(tt.b.Compare(tt.a)))
		})
	}
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}

func TestTransitivity(t *testing.T) {
	a := value.NewInteger(1)
	b := value.NewFloat(2.5)
	c := value.NewInteger(3)
	require.Negative(t, a.Compare(b))
	require.Negative(t, b.Compare(c))
	require.Negative(t, a.Compare(c))
}

func TestEqualsVsCompare(t *testing.T) {
	i := value.NewInteger(0)
	f := value.NewFloat(0)
	assert.Equal(t, 0, i.Compare(f))
	assert.False(t, i.Equals(f), "cross-variant values are never Equals, even when Compare is 0")
}

func TestConversions(t *testing.T) {
	_, err := value.NewNull().AsInt()
	assert.Error(t, err)

	_, err = value.NewString("x").AsInt()
	assert.Error(t, err)

	b, err := value.NewInteger(5).AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	b, err = value.NewString("").AsBool()
	require.NoError(t, err)
	assert.False(t, b)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "null", value.NewNull().ToString())
	assert.Equal(t, "42", value.NewInteger(42).ToString())
	assert.Equal(t, "true", value.NewBoolean(true).ToString())
	assert.Equal(t, "hi", value.NewString("hi").ToString())
}

func TestCloneIsValueSemantics(t *testing.T) {
	v := value.NewString("abc")
	c := v.Clone()
	assert.True(t, v.Equals(c))
}
