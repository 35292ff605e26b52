package provisions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwesterb/go-ristretto"
	"go.uber.org/zap"
)

// ProvisionsProof bundles the public parameters with the assets,
// liabilities and solvency proofs. It is read-only once generated.
type ProvisionsProof struct {
	G, H         *ristretto.Point
	AnonymitySet AnonymitySet
	Assets       *AssetsProof
	Liabilities  *LiabilityProof
	Solvency     *SolvencyProof
}

type Prover struct {
	params *Params
	opts   []OptionFunc
	logger *zap.Logger
}

func NewProver(params *Params, opts ...OptionFunc) *Prover {
	return &Prover{
		params: params,
		opts:   opts,
		logger: applyOpts(opts...).logger,
	}
}

// GenerateProof proves assets over set, builds the liability tree over
// customers and proves both totals are equal. The tree is returned so
// inclusion proofs can be issued to customers.
func (p *Prover) GenerateProof(ctx context.Context, set AnonymitySet, ownedIndices []int, secretKeys []*ristretto.Scalar, customers []*Customer, rng io.Reader) (*ProvisionsProof, *LiabilityTree, error) {
	start := time.Now()
	rnd, err := acquireRandomness(rng)
	if err != nil {
		return nil, nil, err
	}

	assets, assetsWitness, err := ProveAssets(ctx, p.params, set, ownedIndices, secretKeys, rnd.unit("assets", 0), p.opts...)
	if err != nil {
		return nil, nil, err
	}
	tree, err := BuildTree(ctx, p.params, customers, rnd.unit("liabilities", 0), p.opts...)
	if err != nil {
		return nil, nil, err
	}

	cAssets := sumCommitments(assets.commitments())
	cLiab := tree.TotalLiabilitiesCommitment()
	liabWitness := tree.Witness()
	solvency, err := ProveSolvency(p.params, cAssets, assetsWitness.Value, assetsWitness.Blinding, cLiab, liabWitness.Value, liabWitness.Blinding, rnd.unit("solvency", 0))
	if err != nil {
		return nil, nil, err
	}

	proof := &ProvisionsProof{
		G:            clonePoint(p.params.G()),
		H:            clonePoint(p.params.H()),
		AnonymitySet: set,
		Assets:       assets,
		Liabilities:  tree.Public(),
		Solvency:     solvency,
	}
	p.logger.Info("provisions proof generated",
		zap.Int("addresses", len(set)),
		zap.Int("customers", len(customers)),
		zap.Stringer("root", RootID(proof.Liabilities.Root.Digest)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return proof, tree, nil
}

func (a *AssetsProof) commitments() []*Commitment {
	out := make([]*Commitment, 0, len(a.Addresses))
	for _, p := range a.Addresses {
		if p != nil && p.Commitment != nil {
			out = append(out, p.Commitment)
		}
	}
	return out
}

// Result lists the failed sub-checks of a verification run.
type Result struct {
	Failures []error
}

func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

func (r *Result) Err() error {
	return errors.Join(r.Failures...)
}

func (r *Result) fail(err error) {
	r.Failures = append(r.Failures, err)
}

type Verifier struct {
	params  *Params
	opts    []OptionFunc
	options *option
}

func NewVerifier(params *Params, opts ...OptionFunc) *Verifier {
	return &Verifier{
		params:  params,
		opts:    opts,
		options: applyOpts(opts...),
	}
}

// VerifyProof runs the assets, liabilities and solvency checks. It stops at
// the first failure unless the verifier was built WithDiagnostics.
func (v *Verifier) VerifyProof(ctx context.Context, proof *ProvisionsProof) *Result {
	start := time.Now()
	result := &Result{}
	stop := func(err error) bool {
		result.fail(err)
		return !v.options.diagnostics
	}
	defer func() {
		v.options.logger.Info("provisions proof verified",
			zap.Bool("ok", result.OK()),
			zap.Int("failures", len(result.Failures)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	if proof == nil {
		result.fail(kindError(ErrMalformedProof, "missing proof"))
		return result
	}
	if proof.G == nil || proof.H == nil || !pointEqual(proof.G, v.params.G()) || !pointEqual(proof.H, v.params.H()) {
		result.fail(fmt.Errorf("%w: proof generators differ from verifier generators", ErrParameterMismatch))
		return result
	}

	cAssets, err := VerifyAssets(ctx, v.params, proof.AnonymitySet, proof.Assets, v.opts...)
	if err != nil {
		if stop(err) {
			return result
		}
		if proof.Assets != nil {
			cAssets = sumCommitments(proof.Assets.commitments())
		}
	}

	cLiab, err := VerifyLiabilities(ctx, v.params, proof.Liabilities, v.opts...)
	if err != nil {
		if stop(err) {
			return result
		}
		if proof.Liabilities != nil && proof.Liabilities.Root != nil {
			cLiab = proof.Liabilities.Root.Commitment
		}
	}

	if err := VerifySolvency(v.params, cAssets, cLiab, proof.Solvency); err != nil {
		result.fail(err)
	}
	return result
}
