package provisions

import (
	"fmt"
	"io"

	"github.com/bwesterb/go-ristretto"
)

type PartyAwaitingPosition struct {
	BPGens    *BulletproofGens
	PCGens    *PedersenGens
	N         int64
	Value     uint64
	VBlinding *ristretto.Scalar
	V         *ristretto.Point
}

func NewParty(bg *BulletproofGens, pg *PedersenGens, value uint64, blinding *ristretto.Scalar, n int64) (*PartyAwaitingPosition, error) {
	switch n {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("NewParty InvalidBitsize %d", n)
	}
	if bg.GensCapacity < n {
		return nil, fmt.Errorf("NewParty InvalidGeneratorsLength %d, %d", bg.GensCapacity, n)
	}
	if n < 64 && value>>uint(n) != 0 {
		return nil, fmt.Errorf("NewParty value %d out of range for %d bits", value, n)
	}

	return &PartyAwaitingPosition{
		BPGens:    bg,
		PCGens:    pg,
		N:         n,
		Value:     value,
		VBlinding: blinding,
		V:         pg.Commit(uint64ToScalar(value), blinding),
	}, nil
}

type PartyAwaitingBitChallenge struct {
	N         int64
	V         uint64
	VBlinding *ristretto.Scalar
	J         int
	PCGens    *PedersenGens
	ABlinding *ristretto.Scalar
	SBlinding *ristretto.Scalar
	SL        []*ristretto.Scalar
	SR        []*ristretto.Scalar
}

func (p *PartyAwaitingPosition) AssignPositionWithRNG(j int, rng io.Reader) (*PartyAwaitingBitChallenge, *BitCommitment, error) {
	if p.BPGens.PartyCapacity <= int64(j) {
		return nil, nil, fmt.Errorf("AssignPositionWithRNG InvalidGeneratorsLength %d, %d", p.BPGens.PartyCapacity, j)
	}
	bpShare := p.BPGens.Share(j)

	aBlinding, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	var A ristretto.Point
	A.ScalarMult(p.PCGens.H, aBlinding)

	// If v_i = 0, we add a_L[i] * G[i] + a_R[i] * H[i] = - H[i]
	// If v_i = 1, we add a_L[i] * G[i] + a_R[i] * H[i] =   G[i]
	Gs := bpShare.G(p.N)
	Hs := bpShare.H(p.N)

	for i := range Gs {
		var point ristretto.Point
		point.Neg(Hs[i])

		v_i := (p.Value >> i) & 1
		if v_i == 1 {
			point = *Gs[i]
		}
		A.Add(&A, &point)
	}

	sBlinding, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	sL, err := randomScalars(rng, int(p.N))
	if err != nil {
		return nil, nil, err
	}
	sR, err := randomScalars(rng, int(p.N))
	if err != nil {
		return nil, nil, err
	}

	// Compute S = <s_L, G> + <s_R, H> + s_blinding * B_blinding
	s1 := append([]*ristretto.Scalar{sBlinding}, sL...)
	s1 = append(s1, sR...)
	s2 := append([]*ristretto.Point{p.PCGens.H}, Gs...)
	s2 = append(s2, Hs...)
	S := multiscalarMul(s1, s2)

	bitCommitment := &BitCommitment{
		VJ: p.V,
		AJ: &A,
		SJ: S,
	}

	nextState := &PartyAwaitingBitChallenge{
		N:         p.N,
		V:         p.Value,
		VBlinding: p.VBlinding,
		PCGens:    p.PCGens,
		J:         j,
		ABlinding: aBlinding,
		SBlinding: sBlinding,
		SL:        sL,
		SR:        sR,
	}
	return nextState, bitCommitment, nil
}

func (p *PartyAwaitingBitChallenge) ApplyChallengeWithRNG(vc *BitChallenge, rng io.Reader) (*PartyAwaitingPolyChallenge, *PolyCommitment, error) {
	OffsetY := ScalarExpVartime(vc.Y, uint64(int64(p.J)*p.N))
	OffsetZ := ScalarExpVartime(vc.Z, uint64(p.J))

	LPoly := ZeroVecPoly1(p.N)
	RPoly := ZeroVecPoly1(p.N)

	var OffsetZZ ristretto.Scalar
	OffsetZZ.Mul(vc.Z, vc.Z)
	OffsetZZ.Mul(&OffsetZZ, OffsetZ)

	expY := OffsetY
	exp2 := scalarOne()

	for i := 0; i < int(p.N); i++ {
		a_L_i := uint64ToScalar((p.V >> i) & 1)
		var a_R_i ristretto.Scalar
		a_R_i.Sub(a_L_i, scalarOne())

		LPoly.As[i].Sub(a_L_i, vc.Z)
		LPoly.Bs[i] = p.SL[i]

		var tmp1, tmp2 ristretto.Scalar
		tmp1.Add(&a_R_i, vc.Z)
		tmp1.Mul(expY, &tmp1)
		tmp2.Mul(&OffsetZZ, exp2)
		RPoly.As[i].Add(&tmp1, &tmp2)
		RPoly.Bs[i].Mul(expY, p.SR[i])

		expY.Mul(expY, vc.Y)
		exp2.Add(exp2, exp2)
	}

	tPoly := LPoly.InnerProduct(RPoly)

	t1Blinding, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	t2Blinding, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}

	polyCommitment := &PolyCommitment{
		T1j: p.PCGens.Commit(tPoly.B, t1Blinding),
		T2j: p.PCGens.Commit(tPoly.C, t2Blinding),
	}

	papc := &PartyAwaitingPolyChallenge{
		OffsetZZ:   &OffsetZZ,
		LPoly:      LPoly,
		RPoly:      RPoly,
		TPoly:      tPoly,
		T1Blinding: t1Blinding,
		T2Blinding: t2Blinding,
		VBlinding:  p.VBlinding,
		ABlinding:  p.ABlinding,
		SBlinding:  p.SBlinding,
	}
	return papc, polyCommitment, nil
}

type PartyAwaitingPolyChallenge struct {
	OffsetZZ   *ristretto.Scalar
	LPoly      *VecPoly1
	RPoly      *VecPoly1
	TPoly      *Poly2
	VBlinding  *ristretto.Scalar
	ABlinding  *ristretto.Scalar
	SBlinding  *ristretto.Scalar
	T1Blinding *ristretto.Scalar
	T2Blinding *ristretto.Scalar
}

func (p *PartyAwaitingPolyChallenge) ApplyChallenge(pc *PolyChallenge) (*ProofShare, error) {
	if scalarZero().Equals(pc.X) {
		return nil, fmt.Errorf("ApplyChallenge MaliciousDealer")
	}

	var a ristretto.Scalar
	a.Mul(p.OffsetZZ, p.VBlinding)
	tBlindingPoly := Poly2{
		A: &a,
		B: p.T1Blinding,
		C: p.T2Blinding,
	}

	tx := p.TPoly.Eval(pc.X)
	txBlinding := tBlindingPoly.Eval(pc.X)
	var eBlinding ristretto.Scalar
	eBlinding.Mul(p.SBlinding, pc.X)
	eBlinding.Add(p.ABlinding, &eBlinding)

	return &ProofShare{
		TXBlinding: txBlinding,
		TX:         tx,
		EBlinding:  &eBlinding,
		LVec:       p.LPoly.Eval(pc.X),
		RVec:       p.RPoly.Eval(pc.X),
	}, nil
}
