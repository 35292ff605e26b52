package provisions

import (
	"fmt"
	"io"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// RangeProof is a single-party Bulletproof that a commitment opens to a value
// in [0, 2^RangeBits).
type RangeProof struct {
	A, S       *ristretto.Point
	T1, T2     *ristretto.Point
	TX         *ristretto.Scalar
	TXBlinding *ristretto.Scalar
	EBlinding  *ristretto.Scalar
	IPPProof   *InnerProductProof
}

func (p *RangeProof) complete() bool {
	if p == nil || p.A == nil || p.S == nil || p.T1 == nil || p.T2 == nil ||
		p.TX == nil || p.TXBlinding == nil || p.EBlinding == nil || p.IPPProof == nil ||
		p.IPPProof.A == nil || p.IPPProof.B == nil || len(p.IPPProof.LVec) != len(p.IPPProof.RVec) {
		return false
	}
	for i := range p.IPPProof.LVec {
		if p.IPPProof.LVec[i] == nil || p.IPPProof.RVec[i] == nil {
			return false
		}
	}
	return true
}

func (p *RangeProof) ToBytes() []byte {
	var buf []byte
	buf = append(buf, p.A.Bytes()...)
	buf = append(buf, p.S.Bytes()...)
	buf = append(buf, p.T1.Bytes()...)
	buf = append(buf, p.T2.Bytes()...)
	buf = append(buf, p.TX.Bytes()...)
	buf = append(buf, p.TXBlinding.Bytes()...)
	buf = append(buf, p.EBlinding.Bytes()...)
	buf = append(buf, p.IPPProof.ToBytes()...)
	return buf
}

func RangeProofFromBytes(buf []byte) (*RangeProof, error) {
	if len(buf) < 7*32 {
		return nil, fmt.Errorf("%w: range proof length %d", ErrMalformedProof, len(buf))
	}
	points := make([]*ristretto.Point, 4)
	for i := range points {
		p, err := DecodePoint(buf[32*i : 32*i+32])
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	scalars := make([]*ristretto.Scalar, 3)
	for i := range scalars {
		s, err := DecodeScalar(buf[128+32*i : 160+32*i])
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	ipp, err := InnerProductProofFromBytes(buf[224:])
	if err != nil {
		return nil, err
	}
	return &RangeProof{
		A:          points[0],
		S:          points[1],
		T1:         points[2],
		T2:         points[3],
		TX:         scalars[0],
		TXBlinding: scalars[1],
		EBlinding:  scalars[2],
		IPPProof:   ipp,
	}, nil
}

// ProveRange proves value fits in RangeBits bits under the commitment
// value·G + blinding·H, which it returns alongside the proof.
func ProveRange(params *Params, transcript *merlin.Transcript, value uint64, blinding *ristretto.Scalar, rng io.Reader) (*RangeProof, *ristretto.Point, error) {
	dealer1, err := NewDealer(params.Bulletproof, params.Pedersen, transcript, RangeBits, 1)
	if err != nil {
		return nil, nil, err
	}
	party, err := NewParty(params.Bulletproof, params.Pedersen, value, blinding, RangeBits)
	if err != nil {
		return nil, nil, err
	}

	partyA, bitCommitment, err := party.AssignPositionWithRNG(0, rng)
	if err != nil {
		return nil, nil, err
	}
	dealer2, bitChallenge, err := dealer1.ReceiveBitCommitments([]*BitCommitment{bitCommitment})
	if err != nil {
		return nil, nil, err
	}

	partyB, polyCommitment, err := partyA.ApplyChallengeWithRNG(bitChallenge, rng)
	if err != nil {
		return nil, nil, err
	}
	dealer3, polyChallenge, err := dealer2.ReceivePolyCommitments([]*PolyCommitment{polyCommitment})
	if err != nil {
		return nil, nil, err
	}

	share, err := partyB.ApplyChallenge(polyChallenge)
	if err != nil {
		return nil, nil, err
	}
	proof, err := dealer3.AssembleShares([]*ProofShare{share})
	if err != nil {
		return nil, nil, err
	}
	return proof, bitCommitment.VJ, nil
}

// VerifyRange checks that V commits to a value in [0, 2^RangeBits). The
// transcript must be in the state the prover's was in when proving.
func VerifyRange(params *Params, transcript *merlin.Transcript, V *ristretto.Point, proof *RangeProof) error {
	if !proof.complete() {
		return fmt.Errorf("incomplete range proof")
	}
	if params.Bulletproof.GensCapacity < RangeBits || params.Bulletproof.PartyCapacity < 1 {
		return fmt.Errorf("%w: bulletproof generators too small", ErrParameterMismatch)
	}
	n := RangeBits

	RangeproofDomainSep(int64(n), 1, transcript)
	AppendPoint("V", V, transcript)
	for _, p := range []*ristretto.Point{proof.A, proof.S} {
		if isIdentity(p) {
			return fmt.Errorf("identity point in range proof")
		}
	}
	AppendPoint("A", proof.A, transcript)
	AppendPoint("S", proof.S, transcript)
	y := ChallengeScalar("y", transcript)
	z := ChallengeScalar("z", transcript)

	for _, p := range []*ristretto.Point{proof.T1, proof.T2} {
		if isIdentity(p) {
			return fmt.Errorf("identity point in range proof")
		}
	}
	AppendPoint("T_1", proof.T1, transcript)
	AppendPoint("T_2", proof.T2, transcript)
	x := ChallengeScalar("x", transcript)

	AppendScalar("t_x", proof.TX, transcript)
	AppendScalar("t_x_blinding", proof.TXBlinding, transcript)
	AppendScalar("e_blinding", proof.EBlinding, transcript)
	w := ChallengeScalar("w", transcript)

	uSq, uInvSq, s, err := proof.IPPProof.verificationScalars(n, transcript)
	if err != nil {
		return err
	}

	var zz, xx ristretto.Scalar
	zz.Mul(z, z)
	xx.Mul(x, x)

	// t_x·G + t_x_blinding·H == z²·V + δ(y, z)·G + x·T1 + x²·T2
	lhs := params.Pedersen.Commit(proof.TX, proof.TXBlinding)
	rhs := vartimeMultiscalarMul(
		[]*ristretto.Scalar{&zz, delta(n, y, z), x, &xx},
		[]*ristretto.Point{V, params.G(), proof.T1, proof.T2},
	)
	if !pointEqual(lhs, rhs) {
		return fmt.Errorf("polynomial check failed")
	}

	a, b := proof.IPPProof.A, proof.IPPProof.B
	var ab, baseScalar, negE ristretto.Scalar
	ab.Mul(a, b)
	baseScalar.Sub(proof.TX, &ab)
	baseScalar.Mul(&baseScalar, w)
	negE.Neg(proof.EBlinding)

	scalars := []*ristretto.Scalar{scalarOne(), x, &negE, &baseScalar}
	points := []*ristretto.Point{proof.A, proof.S, params.H(), params.G()}
	scalars = append(scalars, uSq...)
	points = append(points, proof.IPPProof.LVec...)
	scalars = append(scalars, uInvSq...)
	points = append(points, proof.IPPProof.RVec...)

	var yInv, negZ ristretto.Scalar
	yInv.Inverse(y)
	negZ.Neg(z)
	yInvExp := NewScalarExp(&yInv)
	share := params.Bulletproof.Share(0)
	Gs, Hs := share.G(int64(n)), share.H(int64(n))
	for i := 0; i < n; i++ {
		var g ristretto.Scalar
		g.Mul(a, s[i])
		scalars = append(scalars, g.Sub(&negZ, &g))

		var h, bs ristretto.Scalar
		h.Mul(&zz, uint64ToScalar(uint64(1)<<uint(i)))
		bs.Mul(b, s[n-1-i])
		h.Sub(&h, &bs)
		h.Mul(&h, yInvExp.Next())
		scalars = append(scalars, h.Add(&h, z))
	}
	points = append(points, interleave(Gs, Hs)...)

	if !isIdentity(vartimeMultiscalarMul(scalars, points)) {
		return fmt.Errorf("inner product check failed")
	}
	return nil
}

// delta computes (z − z²)·<1, y^n> − z³·<1, 2^n>.
func delta(n int, y, z *ristretto.Scalar) *ristretto.Scalar {
	var zz, zzz, d ristretto.Scalar
	zz.Mul(z, z)
	zzz.Mul(&zz, z)
	d.Sub(z, &zz)
	d.Mul(&d, sumOfPowers(y, n))

	twos := uint64ToScalar(^uint64(0))
	if n < 64 {
		twos = uint64ToScalar(uint64(1)<<uint(n) - 1)
	}
	twos.Mul(twos, &zzz)
	return d.Sub(&d, twos)
}

func interleave(a, b []*ristretto.Point) []*ristretto.Point {
	out := make([]*ristretto.Point, 0, len(a)+len(b))
	for i := range a {
		out = append(out, a[i], b[i])
	}
	return out
}
