package provisions

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
	"go.uber.org/zap"
)

// AddressEntry is a public key with its public on-chain balance.
type AddressEntry struct {
	PublicKey *ristretto.Point
	Balance   uint64
}

// AnonymitySet lists the custodian's addresses mixed with decoys.
type AnonymitySet []*AddressEntry

// AddressProof commits to the balance of an address if it is owned and to
// zero otherwise, and proves which of the two without telling.
type AddressProof struct {
	Commitment *Commitment
	Proof      *DisjunctiveProof
}

type AssetsProof struct {
	Addresses []*AddressProof
}

// AssetsWitness opens the aggregate assets commitment. Only the prover holds it.
type AssetsWitness struct {
	Value    *ristretto.Scalar
	Blinding *ristretto.Scalar
}

const (
	branchZero  = 0
	branchOwned = 1
)

func (set AnonymitySet) validate() error {
	if len(set) == 0 {
		return kindError(ErrMalformedAnonymitySet, "empty set")
	}
	seen := make(map[string]int, len(set))
	for i, entry := range set {
		if entry == nil || entry.PublicKey == nil {
			return indexError(ErrMalformedAnonymitySet, i, "missing public key")
		}
		key := string(entry.PublicKey.Bytes())
		if j, ok := seen[key]; ok {
			return indexError(ErrMalformedAnonymitySet, i, fmt.Sprintf("duplicate of index %d", j))
		}
		seen[key] = i
	}
	return nil
}

// ownership maps each claimed index to its secret key after checking P = sk·G.
func ownership(params *Params, set AnonymitySet, ownedIndices []int, secretKeys []*ristretto.Scalar) (map[int]*ristretto.Scalar, error) {
	if len(ownedIndices) != len(secretKeys) {
		return nil, kindError(ErrOwnershipMismatch, fmt.Sprintf("%d indices with %d keys", len(ownedIndices), len(secretKeys)))
	}
	owned := make(map[int]*ristretto.Scalar, len(ownedIndices))
	for k, i := range ownedIndices {
		if i < 0 || i >= len(set) {
			return nil, indexError(ErrOwnershipMismatch, i, "index out of range")
		}
		if _, ok := owned[i]; ok {
			return nil, indexError(ErrOwnershipMismatch, i, "index claimed twice")
		}
		sk := secretKeys[k]
		if sk == nil {
			return nil, indexError(ErrOwnershipMismatch, i, "missing secret key")
		}
		var P ristretto.Point
		P.ScalarMult(params.G(), sk)
		if !pointEqual(&P, set[i].PublicKey) {
			return nil, indexError(ErrOwnershipMismatch, i, "secret key does not match public key")
		}
		owned[i] = sk
	}
	return owned, nil
}

func assetTranscript(params *Params, i int, entry *AddressEntry) *merlin.Transcript {
	t := InitialTranscript(ASSET_DOMAIN_TAG)
	appendParams(params, t)
	appendInt64("index", uint64(i), t)
	AppendPoint("public_key", entry.PublicKey, t)
	appendInt64("balance", entry.Balance, t)
	return t
}

// assetStatements returns the two branches for an address commitment C:
// C = r·H, or P = sk·G and C − b·G = r·H.
func assetStatements(params *Params, entry *AddressEntry, c *Commitment) [2]Statement {
	var bG, shifted ristretto.Point
	bG.ScalarMult(params.G(), uint64ToScalar(entry.Balance))
	shifted.Sub(c.point, &bG)

	var statements [2]Statement
	statements[branchZero] = Statement{
		{Bases: []*ristretto.Point{params.H()}, Result: c.point},
	}
	statements[branchOwned] = Statement{
		{Bases: []*ristretto.Point{params.G()}, Result: entry.PublicKey},
		{Bases: []*ristretto.Point{params.H()}, Result: &shifted},
	}
	return statements
}

func proveAddress(params *Params, i int, entry *AddressEntry, sk *ristretto.Scalar, rng io.Reader) (*AddressProof, *ristretto.Scalar, *ristretto.Scalar, error) {
	r, err := randomScalar(rng)
	if err != nil {
		return nil, nil, nil, err
	}
	value := scalarZero()
	if sk != nil {
		value = uint64ToScalar(entry.Balance)
	}
	c, err := Commit(params, value, r)
	if err != nil {
		return nil, nil, nil, err
	}

	statements := assetStatements(params, entry, c)
	known, w := branchZero, Witness{{r}}
	if sk != nil {
		known, w = branchOwned, Witness{{sk}, {r}}
	}
	proof, err := ProveDisjunction(assetTranscript(params, i, entry), statements, known, w, rng)
	if err != nil {
		return nil, nil, nil, indexError(ErrOwnershipMismatch, i, err.Error())
	}
	return &AddressProof{Commitment: c, Proof: proof}, value, r, nil
}

// ProveAssets commits to every address of set and proves each commitment
// opens either to the address balance under a known key or to zero.
func ProveAssets(ctx context.Context, params *Params, set AnonymitySet, ownedIndices []int, secretKeys []*ristretto.Scalar, rng io.Reader, opts ...OptionFunc) (*AssetsProof, *AssetsWitness, error) {
	options := applyOpts(opts...)
	start := time.Now()

	if err := params.validate(); err != nil {
		return nil, nil, err
	}
	if err := set.validate(); err != nil {
		return nil, nil, err
	}
	owned, err := ownership(params, set, ownedIndices, secretKeys)
	if err != nil {
		return nil, nil, err
	}
	rnd, err := acquireRandomness(rng)
	if err != nil {
		return nil, nil, err
	}

	proofs := make([]*AddressProof, len(set))
	values := make([]*ristretto.Scalar, len(set))
	blindings := make([]*ristretto.Scalar, len(set))
	err = parallelFor(ctx, options.workers, len(set), func(_ context.Context, i int) error {
		p, v, r, err := proveAddress(params, i, set[i], owned[i], rnd.unit("asset", i))
		if err != nil {
			return err
		}
		proofs[i], values[i], blindings[i] = p, v, r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	value, err := sumScalars(ctx, options.workers, values)
	if err != nil {
		return nil, nil, err
	}
	blinding, err := sumScalars(ctx, options.workers, blindings)
	if err != nil {
		return nil, nil, err
	}

	options.logger.Debug("assets proof generated",
		zap.Int("addresses", len(set)),
		zap.Int("owned", len(owned)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &AssetsProof{Addresses: proofs}, &AssetsWitness{Value: value, Blinding: blinding}, nil
}

// VerifyAssets checks every address proof and returns the aggregate assets
// commitment. The error names the first failing index.
func VerifyAssets(ctx context.Context, params *Params, set AnonymitySet, proof *AssetsProof, opts ...OptionFunc) (*Commitment, error) {
	options := applyOpts(opts...)
	start := time.Now()

	if err := params.validate(); err != nil {
		return nil, err
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, indexError(ErrDisjunctiveProofFailure, 0, "missing assets proof")
	}

	failures := make([]string, len(set))
	err := parallelFor(ctx, options.workers, len(set), func(_ context.Context, i int) error {
		failures[i] = verifyAddress(params, i, set[i], proof.Addresses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, reason := range failures {
		if reason != "" {
			return nil, indexError(ErrDisjunctiveProofFailure, i, reason)
		}
	}
	if len(proof.Addresses) != len(set) {
		return nil, indexError(ErrDisjunctiveProofFailure, len(set), "more proofs than addresses")
	}

	commitments := make([]*Commitment, len(set))
	for i, p := range proof.Addresses {
		commitments[i] = p.Commitment
	}
	total, err := sumCommitmentsParallel(ctx, options.workers, commitments)
	if err != nil {
		return nil, err
	}

	options.logger.Debug("assets proof verified",
		zap.Int("addresses", len(set)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return total, nil
}

func verifyAddress(params *Params, i int, entry *AddressEntry, proofs []*AddressProof) string {
	if i >= len(proofs) || proofs[i] == nil {
		return "missing address proof"
	}
	p := proofs[i]
	if p.Commitment == nil || p.Proof == nil {
		return "incomplete address proof"
	}
	statements := assetStatements(params, entry, p.Commitment)
	if !VerifyDisjunction(assetTranscript(params, i, entry), statements, p.Proof) {
		return "disjunctive proof rejected"
	}
	return ""
}

func sumScalars(ctx context.Context, workers int, items []*ristretto.Scalar) (*ristretto.Scalar, error) {
	return parallelFold(ctx, workers, items, scalarZero,
		func(acc *ristretto.Scalar, s *ristretto.Scalar) *ristretto.Scalar { return acc.Add(acc, s) },
		func(a, b *ristretto.Scalar) *ristretto.Scalar { return a.Add(a, b) },
	)
}

func sumCommitmentsParallel(ctx context.Context, workers int, items []*Commitment) (*Commitment, error) {
	sum, err := parallelFold(ctx, workers, items, pointZero,
		func(acc *ristretto.Point, c *Commitment) *ristretto.Point { return acc.Add(acc, c.point) },
		func(a, b *ristretto.Point) *ristretto.Point { return a.Add(a, b) },
	)
	if err != nil {
		return nil, err
	}
	return &Commitment{point: sum}, nil
}
