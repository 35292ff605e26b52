package provisions

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
	"go.uber.org/zap"
)

const NonceSize = 32

// Customer is a ledger record. Balances are in the smallest unit.
type Customer struct {
	ID      string
	Balance uint64
}

// LiabilityLeaf is the public part of a customer leaf. CID hides the
// customer id behind a per-customer nonce.
type LiabilityLeaf struct {
	CID        []byte
	Commitment *Commitment
	RangeProof *RangeProof
}

type LiabilityRoot struct {
	Commitment *Commitment
	Digest     []byte
}

// LiabilityProof is everything a verifier needs to rebuild the tree.
type LiabilityProof struct {
	Leaves []*LiabilityLeaf
	Root   *LiabilityRoot
}

type LiabilitiesWitness struct {
	Value    *ristretto.Scalar
	Blinding *ristretto.Scalar
}

type liabilityNode struct {
	commitment *Commitment
	digest     []byte
	// children and parent are arena indices, -1 when absent
	left, right int
	parent      int
}

type customerSecret struct {
	id       string
	balance  uint64
	blinding *ristretto.Scalar
	nonce    []byte
}

// LiabilityTree is the prover side of the liabilities proof. Leaves occupy
// the first len(customers) slots of the arena; the root is the last node.
type LiabilityTree struct {
	nodes   []liabilityNode
	leaves  []*LiabilityLeaf
	secrets []*customerSecret
	index   map[string]int
	witness *LiabilitiesWitness
}

func deriveCID(id string, nonce []byte) []byte {
	return hash256(CID_DOMAIN_TAG, []byte(id), nonce)
}

func leafDigest(cid []byte, c *Commitment) []byte {
	return hash256(LEAF_DOMAIN_TAG, cid, c.Bytes())
}

func nodeDigest(left, right []byte, c *Commitment) []byte {
	return hash256(NODE_DOMAIN_TAG, left, right, c.Bytes())
}

func rangeTranscript(params *Params, cid []byte) *merlin.Transcript {
	t := InitialTranscript(BULLETPROOF_DOMAIN_TAG)
	appendParams(params, t)
	appendBytes([]byte("cid"), cid, t)
	return t
}

func validateCustomers(customers []*Customer) error {
	if len(customers) == 0 {
		return kindError(ErrMalformedLedger, "no customers")
	}
	seen := make(map[string]int, len(customers))
	for i, c := range customers {
		if c == nil || c.ID == "" {
			return indexError(ErrMalformedLedger, i, "missing customer id")
		}
		if j, ok := seen[c.ID]; ok {
			return customerError(ErrMalformedLedger, i, c.ID, fmt.Sprintf("duplicate of index %d", j))
		}
		seen[c.ID] = i
	}
	return nil
}

func buildLeaf(params *Params, c *Customer, rng io.Reader) (*LiabilityLeaf, *customerSecret, error) {
	blinding, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, nil, fmt.Errorf("randomness source: %w", err)
	}
	cid := deriveCID(c.ID, nonce)
	proof, V, err := ProveRange(params, rangeTranscript(params, cid), c.Balance, blinding, rng)
	if err != nil {
		return nil, nil, err
	}
	leaf := &LiabilityLeaf{
		CID:        cid,
		Commitment: newCommitment(V),
		RangeProof: proof,
	}
	return leaf, &customerSecret{id: c.ID, balance: c.Balance, blinding: blinding, nonce: nonce}, nil
}

// buildArena lays the leaves out first and merges levels pairwise. An odd
// node at the end of a level moves up unchanged.
func buildArena(ctx context.Context, workers int, leaves []*LiabilityLeaf) ([]liabilityNode, error) {
	nodes := make([]liabilityNode, len(leaves), 2*len(leaves))
	level := make([]int, len(leaves))
	for i, leaf := range leaves {
		nodes[i] = liabilityNode{
			commitment: leaf.Commitment,
			digest:     leafDigest(leaf.CID, leaf.Commitment),
			left:       -1,
			right:      -1,
			parent:     -1,
		}
		level[i] = i
	}

	for len(level) > 1 {
		pairs := len(level) / 2
		merged := make([]liabilityNode, pairs)
		err := parallelFor(ctx, workers, pairs, func(_ context.Context, k int) error {
			l, r := &nodes[level[2*k]], &nodes[level[2*k+1]]
			c := l.commitment.Add(r.commitment)
			merged[k] = liabilityNode{
				commitment: c,
				digest:     nodeDigest(l.digest, r.digest, c),
				left:       level[2*k],
				right:      level[2*k+1],
				parent:     -1,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		next := make([]int, 0, pairs+1)
		for k := range merged {
			idx := len(nodes)
			nodes = append(nodes, merged[k])
			nodes[merged[k].left].parent = idx
			nodes[merged[k].right].parent = idx
			next = append(next, idx)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return nodes, nil
}

// BuildTree commits to every customer balance with a fresh blinding factor,
// proves each balance is in range and aggregates the leaves into a tree.
func BuildTree(ctx context.Context, params *Params, customers []*Customer, rng io.Reader, opts ...OptionFunc) (*LiabilityTree, error) {
	options := applyOpts(opts...)
	start := time.Now()

	if err := params.validate(); err != nil {
		return nil, err
	}
	if err := validateCustomers(customers); err != nil {
		return nil, err
	}
	rnd, err := acquireRandomness(rng)
	if err != nil {
		return nil, err
	}

	leaves := make([]*LiabilityLeaf, len(customers))
	secrets := make([]*customerSecret, len(customers))
	err = parallelFor(ctx, options.workers, len(customers), func(_ context.Context, j int) error {
		leaf, secret, err := buildLeaf(params, customers[j], rnd.unit("liability", j))
		if err != nil {
			return fmt.Errorf("liability leaf %d: %w", j, err)
		}
		leaves[j], secrets[j] = leaf, secret
		return nil
	})
	if err != nil {
		return nil, err
	}

	nodes, err := buildArena(ctx, options.workers, leaves)
	if err != nil {
		return nil, err
	}

	values := make([]*ristretto.Scalar, len(secrets))
	blindings := make([]*ristretto.Scalar, len(secrets))
	index := make(map[string]int, len(secrets))
	for j, s := range secrets {
		values[j] = uint64ToScalar(s.balance)
		blindings[j] = s.blinding
		index[s.id] = j
	}
	value, err := sumScalars(ctx, options.workers, values)
	if err != nil {
		return nil, err
	}
	blinding, err := sumScalars(ctx, options.workers, blindings)
	if err != nil {
		return nil, err
	}

	tree := &LiabilityTree{
		nodes:   nodes,
		leaves:  leaves,
		secrets: secrets,
		index:   index,
		witness: &LiabilitiesWitness{Value: value, Blinding: blinding},
	}
	options.logger.Debug("liability tree built",
		zap.Int("customers", len(customers)),
		zap.Int("nodes", len(nodes)),
		zap.String("root", hex.EncodeToString(tree.root().digest)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return tree, nil
}

func (t *LiabilityTree) root() *liabilityNode {
	return &t.nodes[len(t.nodes)-1]
}

func (t *LiabilityTree) Root() *LiabilityRoot {
	r := t.root()
	return &LiabilityRoot{Commitment: r.commitment, Digest: bytes.Clone(r.digest)}
}

// TotalLiabilitiesCommitment commits to the sum of all customer balances.
func (t *LiabilityTree) TotalLiabilitiesCommitment() *Commitment {
	return t.root().commitment
}

// Witness opens the root commitment. It must not leave the prover.
func (t *LiabilityTree) Witness() *LiabilitiesWitness {
	return &LiabilitiesWitness{Value: cloneScalar(t.witness.Value), Blinding: cloneScalar(t.witness.Blinding)}
}

func (t *LiabilityTree) Public() *LiabilityProof {
	leaves := make([]*LiabilityLeaf, len(t.leaves))
	copy(leaves, t.leaves)
	return &LiabilityProof{Leaves: leaves, Root: t.Root()}
}

// VerifyLiabilities checks every range proof, rebuilds the tree from the
// published leaves and compares it with the published root. It returns the
// total liabilities commitment.
func VerifyLiabilities(ctx context.Context, params *Params, proof *LiabilityProof, opts ...OptionFunc) (*Commitment, error) {
	options := applyOpts(opts...)
	start := time.Now()

	if err := params.validate(); err != nil {
		return nil, err
	}
	if proof == nil || len(proof.Leaves) == 0 || proof.Root == nil || proof.Root.Commitment == nil {
		return nil, kindError(ErrMerklePathMismatch, "empty liability proof")
	}

	failures := make([]string, len(proof.Leaves))
	err := parallelFor(ctx, options.workers, len(proof.Leaves), func(_ context.Context, j int) error {
		leaf := proof.Leaves[j]
		if leaf == nil || leaf.Commitment == nil || leaf.RangeProof == nil {
			failures[j] = "incomplete leaf"
			return nil
		}
		if err := VerifyRange(params, rangeTranscript(params, leaf.CID), leaf.Commitment.point, leaf.RangeProof); err != nil {
			failures[j] = err.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for j, reason := range failures {
		if reason != "" {
			var cid string
			if proof.Leaves[j] != nil {
				cid = hex.EncodeToString(proof.Leaves[j].CID)
			}
			return nil, customerError(ErrRangeProofFailure, j, cid, reason)
		}
	}

	nodes, err := buildArena(ctx, options.workers, proof.Leaves)
	if err != nil {
		return nil, err
	}
	root := nodes[len(nodes)-1]
	if !root.commitment.Equal(proof.Root.Commitment) {
		return nil, kindError(ErrMerklePathMismatch, "root commitment differs")
	}
	if !bytes.Equal(root.digest, proof.Root.Digest) {
		return nil, kindError(ErrMerklePathMismatch, "root digest differs")
	}

	options.logger.Debug("liability proof verified",
		zap.Int("leaves", len(proof.Leaves)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return root.commitment, nil
}
