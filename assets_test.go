package provisions

import (
	"context"
	"errors"
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireProofError(t *testing.T, err error, kind error, index int) {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var perr *ProofError
	require.True(t, errors.As(err, &perr), "error %v is not a ProofError", err)
	assert.Equal(t, index, perr.Index)
}

func TestAssetsProof(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	params := DefaultParams()

	set, keys := testAnonymitySet(t, 10, map[int]uint64{2: 5, 7: 3})
	proof, witness, err := ProveAssets(ctx, params, set, []int{2, 7}, []*ristretto.Scalar{keys[2], keys[7]}, testReader("assets"))
	require.NoError(t, err)
	assert.Len(proof.Addresses, 10)
	assert.True(witness.Value.Equals(uint64ToScalar(8)))

	total, err := VerifyAssets(ctx, params, set, proof)
	require.NoError(t, err)
	assert.True(VerifyOpening(params, total, witness.Value, witness.Blinding))
}

func TestAssetsProofNothingOwned(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	params := DefaultParams()

	set, _ := testAnonymitySet(t, 3, nil)
	proof, witness, err := ProveAssets(ctx, params, set, nil, nil, testReader("assets"))
	require.NoError(t, err)
	assert.True(witness.Value.Equals(scalarZero()))

	total, err := VerifyAssets(ctx, params, set, proof)
	require.NoError(t, err)
	assert.True(VerifyOpening(params, total, scalarZero(), witness.Blinding))
}

func TestAssetsProofOwnership(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()
	set, keys := testAnonymitySet(t, 4, nil)

	_, _, err := ProveAssets(ctx, params, set, []int{1}, []*ristretto.Scalar{keys[2]}, testReader("assets"))
	requireProofError(t, err, ErrOwnershipMismatch, 1)

	_, _, err = ProveAssets(ctx, params, set, []int{4}, []*ristretto.Scalar{keys[0]}, testReader("assets"))
	requireProofError(t, err, ErrOwnershipMismatch, 4)

	_, _, err = ProveAssets(ctx, params, set, []int{1, 1}, []*ristretto.Scalar{keys[1], keys[1]}, testReader("assets"))
	requireProofError(t, err, ErrOwnershipMismatch, 1)

	_, _, err = ProveAssets(ctx, params, set, []int{1}, nil, testReader("assets"))
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
}

func TestAssetsMalformedSet(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()

	_, _, err := ProveAssets(ctx, params, AnonymitySet{}, nil, nil, testReader("assets"))
	assert.ErrorIs(t, err, ErrMalformedAnonymitySet)

	set, _ := testAnonymitySet(t, 4, nil)
	set = append(set, &AddressEntry{PublicKey: set[1].PublicKey, Balance: 9})
	_, _, err = ProveAssets(ctx, params, set, nil, nil, testReader("assets"))
	requireProofError(t, err, ErrMalformedAnonymitySet, 4)

	set, _ = testAnonymitySet(t, 4, nil)
	set[2] = nil
	_, err = VerifyAssets(ctx, params, set, &AssetsProof{})
	requireProofError(t, err, ErrMalformedAnonymitySet, 2)
}

// A prover that commits to the balance of an address it does not own cannot
// produce a matching disjunction, so the verifier names that address.
func TestAssetsForgedCommitment(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()

	set, keys := testAnonymitySet(t, 10, map[int]uint64{2: 5, 7: 3})
	proof, _, err := ProveAssets(ctx, params, set, []int{2, 7}, []*ristretto.Scalar{keys[2], keys[7]}, testReader("assets"))
	require.NoError(t, err)

	forged, err := CommitUint64(params, set[4].Balance, testScalar(t, "forged"))
	require.NoError(t, err)
	proof.Addresses[4].Commitment = forged

	_, err = VerifyAssets(ctx, params, set, proof)
	requireProofError(t, err, ErrDisjunctiveProofFailure, 4)
}

func TestAssetsProofBoundToEntry(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()

	set, keys := testAnonymitySet(t, 4, map[int]uint64{1: 50})
	proof, _, err := ProveAssets(ctx, params, set, []int{1}, []*ristretto.Scalar{keys[1]}, testReader("assets"))
	require.NoError(t, err)

	// claiming a different balance for the owned address
	set[1].Balance = 51
	_, err = VerifyAssets(ctx, params, set, proof)
	requireProofError(t, err, ErrDisjunctiveProofFailure, 1)
	set[1].Balance = 50

	// proofs of two addresses swapped
	proof.Addresses[0], proof.Addresses[3] = proof.Addresses[3], proof.Addresses[0]
	_, err = VerifyAssets(ctx, params, set, proof)
	requireProofError(t, err, ErrDisjunctiveProofFailure, 0)
	proof.Addresses[0], proof.Addresses[3] = proof.Addresses[3], proof.Addresses[0]

	_, err = VerifyAssets(ctx, params, set, &AssetsProof{Addresses: proof.Addresses[:3]})
	requireProofError(t, err, ErrDisjunctiveProofFailure, 3)

	_, err = VerifyAssets(ctx, params, set, &AssetsProof{Addresses: append(proof.Addresses, proof.Addresses[0])})
	requireProofError(t, err, ErrDisjunctiveProofFailure, 4)
}

func TestAssetsCancelled(t *testing.T) {
	params := DefaultParams()
	set, _ := testAnonymitySet(t, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ProveAssets(ctx, params, set, nil, nil, testReader("assets"), WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
}
