package provisions

import (
	"fmt"
	"io"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// SolvencyProof shows C_assets − C_liab = r·H for a known r, that is both
// commitments hide the same value.
type SolvencyProof struct {
	Proof *SigmaProof
}

func solvencyTranscript(params *Params, cAssets, cLiab *Commitment) *merlin.Transcript {
	t := InitialTranscript(SOLVENCY_DOMAIN_TAG)
	appendParams(params, t)
	AppendPoint("assets", cAssets.point, t)
	AppendPoint("liabilities", cLiab.point, t)
	return t
}

func solvencyStatement(params *Params, diff *Commitment) Statement {
	return Statement{{Bases: []*ristretto.Point{params.H()}, Result: diff.point}}
}

// ProveSolvency fails with ErrInsolvent when the two values differ. Both
// openings are checked against their commitments first.
func ProveSolvency(params *Params, cAssets *Commitment, valueAssets, blindingAssets *ristretto.Scalar, cLiab *Commitment, valueLiab, blindingLiab *ristretto.Scalar, rng io.Reader) (*SolvencyProof, error) {
	if cAssets == nil || cLiab == nil {
		return nil, fmt.Errorf("%w: missing commitment", ErrInvalidPoint)
	}
	if !VerifyOpening(params, cAssets, valueAssets, blindingAssets) {
		return nil, fmt.Errorf("%w: assets opening does not match commitment", ErrInvalidScalar)
	}
	if !VerifyOpening(params, cLiab, valueLiab, blindingLiab) {
		return nil, fmt.Errorf("%w: liabilities opening does not match commitment", ErrInvalidScalar)
	}
	if !valueAssets.Equals(valueLiab) {
		return nil, kindError(ErrInsolvent, "assets and liabilities differ")
	}
	rnd, err := acquireRandomness(rng)
	if err != nil {
		return nil, err
	}

	diff := cAssets.Sub(cLiab)
	var rDiff ristretto.Scalar
	rDiff.Sub(blindingAssets, blindingLiab)

	proof, err := ProveStatement(solvencyTranscript(params, cAssets, cLiab), solvencyStatement(params, diff), Witness{{&rDiff}}, rnd.unit("solvency", 0))
	if err != nil {
		return nil, kindError(ErrInsolvent, err.Error())
	}
	return &SolvencyProof{Proof: proof}, nil
}

func VerifySolvency(params *Params, cAssets, cLiab *Commitment, proof *SolvencyProof) error {
	if cAssets == nil || cLiab == nil || proof == nil {
		return kindError(ErrSolvencyProofFailure, "missing input")
	}
	diff := cAssets.Sub(cLiab)
	if !VerifyStatement(solvencyTranscript(params, cAssets, cLiab), solvencyStatement(params, diff), proof.Proof) {
		return kindError(ErrSolvencyProofFailure, "equality proof rejected")
	}
	return nil
}
