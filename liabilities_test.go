package provisions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestTree(t *testing.T, balances ...uint64) *LiabilityTree {
	tree, err := BuildTree(context.Background(), DefaultParams(), testCustomers(balances...), testReader("liabilities"))
	require.NoError(t, err)
	return tree
}

func TestLiabilityTreeRoot(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()

	for _, balances := range [][]uint64{{7}, {4, 4}, {1, 2, 3}, {0, 5, 0, 9, 11}} {
		tree := buildTestTree(t, balances...)
		var sum uint64
		for _, b := range balances {
			sum += b
		}
		w := tree.Witness()
		assert.True(w.Value.Equals(uint64ToScalar(sum)))
		assert.True(VerifyOpening(params, tree.TotalLiabilitiesCommitment(), w.Value, w.Blinding))
		assert.Len(tree.nodes, 2*len(balances)-1)

		total, err := VerifyLiabilities(context.Background(), params, tree.Public())
		require.NoError(t, err)
		assert.True(total.Equal(tree.Root().Commitment))
	}
}

func TestLiabilityTreeSingleLeaf(t *testing.T) {
	assert := assert.New(t)
	tree := buildTestTree(t, 7)

	leaf := tree.Public().Leaves[0]
	assert.Equal(leafDigest(leaf.CID, leaf.Commitment), tree.Root().Digest)
	assert.True(leaf.Commitment.Equal(tree.Root().Commitment))

	proof, err := tree.IssueInclusionProof("a@example.com")
	require.NoError(t, err)
	assert.Empty(proof.Path)
}

func TestLiabilityTreeOddCarry(t *testing.T) {
	assert := assert.New(t)
	tree := buildTestTree(t, 1, 2, 3)

	// ((l0, l1), l2): the third leaf moves up unchanged and pairs at the root.
	leaves := tree.Public().Leaves
	c01 := leaves[0].Commitment.Add(leaves[1].Commitment)
	d01 := nodeDigest(leafDigest(leaves[0].CID, leaves[0].Commitment), leafDigest(leaves[1].CID, leaves[1].Commitment), c01)
	root := c01.Add(leaves[2].Commitment)
	assert.Equal(nodeDigest(d01, leafDigest(leaves[2].CID, leaves[2].Commitment), root), tree.Root().Digest)

	proof, err := tree.IssueInclusionProof("c@example.com")
	require.NoError(t, err)
	require.Len(t, proof.Path, 1)
	assert.True(proof.Path[0].SiblingLeft)
	assert.Equal(d01, proof.Path[0].Digest)
}

func TestLiabilityTreeHidesCustomerIDs(t *testing.T) {
	tree := buildTestTree(t, 1, 2)
	for _, leaf := range tree.Public().Leaves {
		assert.Len(t, leaf.CID, 32)
		assert.NotContains(t, string(leaf.CID), "example.com")
	}
	other, err := BuildTree(context.Background(), DefaultParams(), testCustomers(1, 2), testReader("another seed"))
	require.NoError(t, err)
	assert.NotEqual(t, tree.Public().Leaves[0].CID, other.Public().Leaves[0].CID)
}

func TestLiabilityLedgerValidation(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()

	_, err := BuildTree(ctx, params, nil, testReader("l"))
	assert.ErrorIs(t, err, ErrMalformedLedger)

	customers := testCustomers(1, 2, 3)
	customers[2].ID = customers[0].ID
	_, err = BuildTree(ctx, params, customers, testReader("l"))
	requireProofError(t, err, ErrMalformedLedger, 2)

	customers = testCustomers(1, 2)
	customers[1].ID = ""
	_, err = BuildTree(ctx, params, customers, testReader("l"))
	requireProofError(t, err, ErrMalformedLedger, 1)

	_, err = BuildTree(ctx, params, testCustomers(1), nil)
	assert.Error(t, err)
}

func TestBuildLeafRandomnessFailure(t *testing.T) {
	params := DefaultParams()
	customer := testCustomers(1)[0]
	boom := errors.New("boom")

	_, _, err := buildLeaf(params, customer, iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrRangeProofFailure)

	// enough for the blinding and the nonce, then the range proof runs dry
	_, _, err = buildLeaf(params, customer, io.LimitReader(testReader("leaf"), 64+NonceSize))
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrRangeProofFailure)
}

func TestInclusionProof(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()
	balances := []uint64{10, 20, 30, 40, 50}
	tree := buildTestTree(t, balances...)
	root := tree.Root()

	for j, c := range testCustomers(balances...) {
		proof, err := tree.IssueInclusionProof(c.ID)
		require.NoError(t, err)
		assert.Equal(j, proof.LeafIndex)
		assert.Equal(c.Balance, proof.Balance)
		assert.NoError(VerifyInclusion(params, root, c.ID, c.Balance, proof.Blinding, proof), c.ID)

		err = VerifyInclusion(params, root, c.ID, c.Balance+1, proof.Blinding, proof)
		requireProofError(t, err, ErrMerklePathMismatch, j)
		assert.ErrorIs(VerifyInclusion(params, root, "z@example.com", c.Balance, proof.Blinding, proof), ErrMerklePathMismatch)
	}

	_, err := tree.IssueInclusionProof("z@example.com")
	assert.ErrorIs(err, ErrUnknownCustomer)
}

func TestInclusionProofTamperedPath(t *testing.T) {
	params := DefaultParams()
	tree := buildTestTree(t, 1, 2, 3, 4)
	proof, err := tree.IssueInclusionProof("b@example.com")
	require.NoError(t, err)
	require.Len(t, proof.Path, 2)

	proof.Path[1].Digest[0] ^= 1
	err = VerifyInclusion(params, tree.Root(), "b@example.com", 2, proof.Blinding, proof)
	assert.ErrorIs(t, err, ErrMerklePathMismatch)

	proof, err = tree.IssueInclusionProof("b@example.com")
	require.NoError(t, err)
	proof.Path[0].SiblingLeft = !proof.Path[0].SiblingLeft
	err = VerifyInclusion(params, tree.Root(), "b@example.com", 2, proof.Blinding, proof)
	assert.ErrorIs(t, err, ErrMerklePathMismatch)
}

func TestVerifyLiabilitiesTampering(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()
	tree := buildTestTree(t, 1, 2, 3, 4, 5)

	// a leaf commitment swapped for another value breaks its range proof
	proof := tree.Public()
	forged, err := CommitUint64(params, 100, testScalar(t, "forged"))
	require.NoError(t, err)
	proof.Leaves[3] = &LiabilityLeaf{CID: proof.Leaves[3].CID, Commitment: forged, RangeProof: proof.Leaves[3].RangeProof}
	_, err = VerifyLiabilities(ctx, params, proof)
	requireProofError(t, err, ErrRangeProofFailure, 3)

	// a range proof moved to another cid
	proof = tree.Public()
	proof.Leaves[0] = &LiabilityLeaf{CID: proof.Leaves[1].CID, Commitment: proof.Leaves[0].Commitment, RangeProof: proof.Leaves[0].RangeProof}
	_, err = VerifyLiabilities(ctx, params, proof)
	requireProofError(t, err, ErrRangeProofFailure, 0)

	proof = tree.Public()
	proof.Root.Digest[5] ^= 0x80
	_, err = VerifyLiabilities(ctx, params, proof)
	assert.ErrorIs(t, err, ErrMerklePathMismatch)

	proof = tree.Public()
	proof.Root.Commitment = proof.Leaves[0].Commitment
	_, err = VerifyLiabilities(ctx, params, proof)
	assert.ErrorIs(t, err, ErrMerklePathMismatch)

	// dropping a leaf changes the root
	proof = tree.Public()
	proof.Leaves = proof.Leaves[:4]
	_, err = VerifyLiabilities(ctx, params, proof)
	assert.ErrorIs(t, err, ErrMerklePathMismatch)

	_, err = VerifyLiabilities(ctx, params, &LiabilityProof{})
	assert.ErrorIs(t, err, ErrMerklePathMismatch)
}

func TestInclusionProofEncoding(t *testing.T) {
	assert := assert.New(t)
	params := DefaultParams()
	tree := buildTestTree(t, 3, 1, 4, 1, 5)

	proof, err := tree.IssueInclusionProof("c@example.com")
	require.NoError(t, err)

	buf, err := json.Marshal(proof)
	require.NoError(t, err)
	var fromJSON InclusionProof
	require.NoError(t, json.Unmarshal(buf, &fromJSON))
	assert.NoError(VerifyInclusion(params, tree.Root(), "c@example.com", 4, fromJSON.Blinding, &fromJSON))

	bin, err := proof.MarshalBinary()
	require.NoError(t, err)
	var fromBinary InclusionProof
	require.NoError(t, fromBinary.UnmarshalBinary(bin))
	assert.NoError(VerifyInclusion(params, tree.Root(), "c@example.com", 4, fromBinary.Blinding, &fromBinary))
	assert.Equal(proof.LeafIndex, fromBinary.LeafIndex)

	var bad InclusionProof
	assert.ErrorIs(json.Unmarshal([]byte(`{"blinding":"zz"}`), &bad), ErrInvalidScalar)
	assert.ErrorIs(bad.UnmarshalBinary([]byte{0x0a, 0x05, 0x01}), ErrMalformedProof)
}
