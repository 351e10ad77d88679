package stitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandard_Arity(t *testing.T) {
	c := Standard()

	testCases := []struct {
		symbol   string
		consumes int
		produces int
	}{
		{"CO", 0, 1},
		{"BO", 1, 0},
		{"K", 1, 1},
		{"P", 1, 1},
		{"YO", 0, 1},
		{"KFB", 1, 2},
		{"K2TOG", 2, 1},
		{"SSK", 2, 1},
		{"SK2P", 3, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.symbol, func(t *testing.T) {
			op, ok := c.Lookup(tc.symbol)
			require.True(t, ok)
			assert.Equal(t, tc.consumes, op.Consumes)
			assert.Equal(t, tc.produces, op.Produces)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Standard().Lookup("XYZ")
	assert.False(t, ok)
}

func TestRegister_Rejects(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Operation{Symbol: "K", Consumes: 1, Produces: 1}))

	err := c.Register(Operation{Symbol: "K", Consumes: 1, Produces: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = c.Register(Operation{Symbol: "NEG", Consumes: 0, Produces: -1})
	require.Error(t, err)

	err = c.Register(Operation{})
	require.Error(t, err)
}

func TestCatalogs_AreIndependent(t *testing.T) {
	a := Standard()
	b := Standard()
	require.NoError(t, a.Register(Operation{Symbol: "CABLE", Consumes: 4, Produces: 4}))

	_, ok := b.Lookup("CABLE")
	assert.False(t, ok)
	assert.Contains(t, a.Symbols(), "CABLE")
	assert.Equal(t, 0, Operation{Symbol: "K", Consumes: 1, Produces: 1}.Delta())
}
