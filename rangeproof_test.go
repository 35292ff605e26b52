package provisions

import (
	"math"
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeProof(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()

	for _, value := range []uint64{0, 1, 4, 1 << 32, math.MaxUint64} {
		blinding := testScalar(t, "range blinding")
		proof, V, err := ProveRange(params, InitialTranscript("range test"), value, blinding, testReader("range"))
		require.NoError(t, err)
		assert.Len(proof.IPPProof.LVec, 6)

		expected, err := CommitUint64(params, value, blinding)
		require.NoError(t, err)
		assert.True(pointEqual(expected.point, V))

		assert.NoError(VerifyRange(params, InitialTranscript("range test"), V, proof), "value %d", value)
		assert.Error(VerifyRange(params, InitialTranscript("other test"), V, proof), "value %d", value)
	}
}

func TestRangeProofRejectsTampering(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()

	blinding := testScalar(t, "range blinding")
	prove := func() (*RangeProof, *ristretto.Point) {
		proof, V, err := ProveRange(params, InitialTranscript("range test"), 4, blinding, testReader("range"))
		require.NoError(t, err)
		return proof, V
	}

	proof, V := prove()
	var tx ristretto.Scalar
	proof.TX = tx.Add(proof.TX, scalarOne())
	assert.Error(VerifyRange(params, InitialTranscript("range test"), V, proof))

	proof, V = prove()
	var a ristretto.Scalar
	proof.IPPProof.A = a.Add(proof.IPPProof.A, scalarOne())
	assert.Error(VerifyRange(params, InitialTranscript("range test"), V, proof))

	proof, _ = prove()
	other, err := CommitUint64(params, 5, blinding)
	require.NoError(t, err)
	assert.Error(VerifyRange(params, InitialTranscript("range test"), other.point, proof))

	proof, V = prove()
	proof.IPPProof.LVec = proof.IPPProof.LVec[1:]
	assert.Error(VerifyRange(params, InitialTranscript("range test"), V, proof))

	assert.Error(VerifyRange(params, InitialTranscript("range test"), V, nil))
}

// A commitment to −1 cannot carry a valid proof: the closest a prover gets
// is proving 2^64−1 under the same blinding, which commits to another point.
func TestRangeProofNegativeValue(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()

	blinding := testScalar(t, "negative")
	var minusOne ristretto.Scalar
	minusOne.Neg(scalarOne())
	negative, err := Commit(params, &minusOne, blinding)
	require.NoError(t, err)

	proof, _, err := ProveRange(params, InitialTranscript("range test"), math.MaxUint64, blinding, testReader("range"))
	require.NoError(t, err)
	assert.Error(VerifyRange(params, InitialTranscript("range test"), negative.point, proof))
}

func TestRangeProofBytes(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()

	proof, V, err := ProveRange(params, InitialTranscript("range test"), 12345, testScalar(t, "bytes"), testReader("range"))
	require.NoError(t, err)

	buf := proof.ToBytes()
	assert.Len(buf, 7*32+2*6*32+2*32)
	decoded, err := RangeProofFromBytes(buf)
	require.NoError(t, err)
	assert.Equal(buf, decoded.ToBytes())
	assert.NoError(VerifyRange(params, InitialTranscript("range test"), V, decoded))

	_, err = RangeProofFromBytes(buf[:100])
	assert.ErrorIs(err, ErrMalformedProof)
	_, err = RangeProofFromBytes(buf[:len(buf)-32])
	assert.ErrorIs(err, ErrMalformedProof)
}

func TestRangeProofOutOfRangeParty(t *testing.T) {
	params := DefaultParams()
	_, err := NewParty(params.Bulletproof, params.Pedersen, 256, scalarOne(), 8)
	assert.Error(t, err)
	_, err = NewParty(params.Bulletproof, params.Pedersen, 1, scalarOne(), 12)
	assert.Error(t, err)
}
