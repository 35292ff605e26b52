package provisions

import (
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opening struct {
	c *Commitment
	v *ristretto.Scalar
	r *ristretto.Scalar
}

func testOpening(t *testing.T, value uint64, seed string) opening {
	v, r := uint64ToScalar(value), testScalar(t, seed)
	c, err := Commit(DefaultParams(), v, r)
	require.NoError(t, err)
	return opening{c, v, r}
}

func TestSolvencyProof(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()
	a, l := testOpening(t, 8, "assets"), testOpening(t, 8, "liabilities")

	proof, err := ProveSolvency(params, a.c, a.v, a.r, l.c, l.v, l.r, testReader("solvency"))
	require.NoError(t, err)
	assert.NoError(VerifySolvency(params, a.c, l.c, proof))

	// bound to both commitments and their order
	other := testOpening(t, 8, "other")
	assert.ErrorIs(VerifySolvency(params, other.c, l.c, proof), ErrSolvencyProofFailure)
	assert.ErrorIs(VerifySolvency(params, l.c, a.c, proof), ErrSolvencyProofFailure)
	assert.ErrorIs(VerifySolvency(params, a.c, l.c, nil), ErrSolvencyProofFailure)

	var c ristretto.Scalar
	proof.Proof.Challenge = c.Add(proof.Proof.Challenge, scalarOne())
	assert.ErrorIs(VerifySolvency(params, a.c, l.c, proof), ErrSolvencyProofFailure)
}

func TestSolvencyInsolvent(t *testing.T) {
	params := DefaultParams()
	for _, values := range [][2]uint64{{7, 8}, {9, 8}, {0, 1}} {
		a, l := testOpening(t, values[0], "assets"), testOpening(t, values[1], "liabilities")
		_, err := ProveSolvency(params, a.c, a.v, a.r, l.c, l.v, l.r, testReader("solvency"))
		assert.ErrorIs(t, err, ErrInsolvent, "assets %d liabilities %d", values[0], values[1])
	}
}

func TestSolvencyWrongOpening(t *testing.T) {
	params := DefaultParams()
	a, l := testOpening(t, 8, "assets"), testOpening(t, 8, "liabilities")

	_, err := ProveSolvency(params, a.c, a.v, l.r, l.c, l.v, l.r, testReader("solvency"))
	assert.ErrorIs(t, err, ErrInvalidScalar)
	_, err = ProveSolvency(params, a.c, a.v, a.r, l.c, uint64ToScalar(9), l.r, testReader("solvency"))
	assert.ErrorIs(t, err, ErrInvalidScalar)
	_, err = ProveSolvency(params, nil, a.v, a.r, l.c, l.v, l.r, testReader("solvency"))
	assert.ErrorIs(t, err, ErrInvalidPoint)
}
