package provisions

import (
	"fmt"
	"math/bits"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

type BitCommitment struct {
	VJ *ristretto.Point
	AJ *ristretto.Point
	SJ *ristretto.Point
}

type BitChallenge struct {
	Y *ristretto.Scalar
	Z *ristretto.Scalar
}

type PolyCommitment struct {
	T1j *ristretto.Point
	T2j *ristretto.Point
}

type PolyChallenge struct {
	X *ristretto.Scalar
}

type ProofShare struct {
	TX         *ristretto.Scalar
	TXBlinding *ristretto.Scalar
	EBlinding  *ristretto.Scalar
	LVec       []*ristretto.Scalar
	RVec       []*ristretto.Scalar
}

// DealerAwaitingBitCommitments drives an N-bit range proof over M parties.
type DealerAwaitingBitCommitments struct {
	BPGens     *BulletproofGens
	PCGens     *PedersenGens
	Transcript *merlin.Transcript
	N, M       int64
}

func NewDealer(bg *BulletproofGens, pg *PedersenGens, t *merlin.Transcript, n, m int64) (*DealerAwaitingBitCommitments, error) {
	switch n {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("NewDealer InvalidBitsize n: %d", n)
	}
	if m < 1 || bits.OnesCount64(uint64(m)) > 1 {
		return nil, fmt.Errorf("NewDealer InvalidAggregation m: %d", m)
	}
	if bg.GensCapacity < n {
		return nil, fmt.Errorf("NewDealer InvalidGeneratorsLength GensCapacity %d, n %d", bg.GensCapacity, n)
	}
	if bg.PartyCapacity < m {
		return nil, fmt.Errorf("NewDealer InvalidGeneratorsLength PartyCapacity %d, m %d", bg.PartyCapacity, m)
	}

	return &DealerAwaitingBitCommitments{
		BPGens:     bg,
		PCGens:     pg,
		Transcript: RangeproofDomainSep(n, m, t),
		N:          n,
		M:          m,
	}, nil
}

type DealerAwaitingPolyCommitments struct {
	N, M         int64
	Transcript   *merlin.Transcript
	BPGens       *BulletproofGens
	PCGens       *PedersenGens
	BitChallenge *BitChallenge
	A            *ristretto.Point
	S            *ristretto.Point
}

func (d *DealerAwaitingBitCommitments) ReceiveBitCommitments(commitments []*BitCommitment) (*DealerAwaitingPolyCommitments, *BitChallenge, error) {
	if int(d.M) != len(commitments) {
		return nil, nil, fmt.Errorf("ReceiveBitCommitments WrongNumBitCommitments %d %d", int(d.M), len(commitments))
	}

	A, S := pointZero(), pointZero()
	for i := range commitments {
		AppendPoint("V", commitments[i].VJ, d.Transcript)
		A.Add(A, commitments[i].AJ)
		S.Add(S, commitments[i].SJ)
	}
	AppendPoint("A", A, d.Transcript)
	AppendPoint("S", S, d.Transcript)

	challenge := &BitChallenge{
		Y: ChallengeScalar("y", d.Transcript),
		Z: ChallengeScalar("z", d.Transcript),
	}

	return &DealerAwaitingPolyCommitments{
		N:            d.N,
		M:            d.M,
		Transcript:   d.Transcript,
		BPGens:       d.BPGens,
		PCGens:       d.PCGens,
		BitChallenge: challenge,
		A:            A,
		S:            S,
	}, challenge, nil
}

type DealerAwaitingProofShares struct {
	N, M          int64
	Transcript    *merlin.Transcript
	BPGens        *BulletproofGens
	PCGens        *PedersenGens
	BitChallenge  *BitChallenge
	A             *ristretto.Point
	S             *ristretto.Point
	PolyChallenge *PolyChallenge
	T1, T2        *ristretto.Point
}

func (d *DealerAwaitingPolyCommitments) ReceivePolyCommitments(commitments []*PolyCommitment) (*DealerAwaitingProofShares, *PolyChallenge, error) {
	if int(d.M) != len(commitments) {
		return nil, nil, fmt.Errorf("ReceivePolyCommitments WrongNumPolyCommitments %d %d", d.M, len(commitments))
	}

	T1, T2 := pointZero(), pointZero()
	for i := range commitments {
		T1.Add(T1, commitments[i].T1j)
		T2.Add(T2, commitments[i].T2j)
	}
	AppendPoint("T_1", T1, d.Transcript)
	AppendPoint("T_2", T2, d.Transcript)

	challenge := &PolyChallenge{X: ChallengeScalar("x", d.Transcript)}
	return &DealerAwaitingProofShares{
		N:             d.N,
		M:             d.M,
		Transcript:    d.Transcript,
		BPGens:        d.BPGens,
		PCGens:        d.PCGens,
		BitChallenge:  d.BitChallenge,
		A:             d.A,
		S:             d.S,
		PolyChallenge: challenge,
		T1:            T1,
		T2:            T2,
	}, challenge, nil
}

func (ps *ProofShare) checkSize(n int64, bg *BulletproofGens, j int) error {
	if len(ps.LVec) != int(n) {
		return fmt.Errorf("checkSize lvec %d, %d", len(ps.LVec), n)
	}
	if len(ps.RVec) != int(n) {
		return fmt.Errorf("checkSize rvec %d, %d", len(ps.RVec), n)
	}
	if n > bg.GensCapacity {
		return fmt.Errorf("checkSize gens %d, %d", n, bg.GensCapacity)
	}
	if int64(j) >= bg.PartyCapacity {
		return fmt.Errorf("checkSize party %d, %d", j, bg.PartyCapacity)
	}
	return nil
}

func (d *DealerAwaitingProofShares) AssembleShares(proofs []*ProofShare) (*RangeProof, error) {
	if int(d.M) != len(proofs) {
		return nil, fmt.Errorf("AssembleShares WrongNumProofShares %d %d", d.M, len(proofs))
	}
	for i, p := range proofs {
		if err := p.checkSize(d.N, d.BPGens, i); err != nil {
			return nil, fmt.Errorf("AssembleShares MalformedProofShares %d: %w", i, err)
		}
	}

	tx, txBlinding, eBlinding := scalarZero(), scalarZero(), scalarZero()
	for i := range proofs {
		tx.Add(tx, proofs[i].TX)
		txBlinding.Add(txBlinding, proofs[i].TXBlinding)
		eBlinding.Add(eBlinding, proofs[i].EBlinding)
	}

	AppendScalar("t_x", tx, d.Transcript)
	AppendScalar("t_x_blinding", txBlinding, d.Transcript)
	AppendScalar("e_blinding", eBlinding, d.Transcript)

	w := ChallengeScalar("w", d.Transcript)
	var Q ristretto.Point
	Q.ScalarMult(d.PCGens.G, w)

	nm := int(d.N * d.M)
	GFactors := make([]*ristretto.Scalar, nm)
	HFactors := make([]*ristretto.Scalar, nm)
	var inverseY ristretto.Scalar
	inverseY.Inverse(d.BitChallenge.Y)
	scalarExp := NewScalarExp(&inverseY)
	for i := 0; i < nm; i++ {
		GFactors[i] = scalarOne()
		HFactors[i] = scalarExp.Next()
	}

	LVec := make([]*ristretto.Scalar, 0, nm)
	RVec := make([]*ristretto.Scalar, 0, nm)
	for i := range proofs {
		for j := range proofs[i].LVec {
			LVec = append(LVec, cloneScalar(proofs[i].LVec[j]))
		}
		for j := range proofs[i].RVec {
			RVec = append(RVec, cloneScalar(proofs[i].RVec[j]))
		}
	}

	gVec, hVec := d.BPGens.aggregated(d.N, d.M)
	ippProof, err := CreateInnerProductProof(d.Transcript, &Q, GFactors, HFactors, gVec, hVec, LVec, RVec)
	if err != nil {
		return nil, err
	}

	return &RangeProof{
		A:          d.A,
		S:          d.S,
		T1:         d.T1,
		T2:         d.T2,
		TX:         tx,
		TXBlinding: txBlinding,
		EBlinding:  eBlinding,
		IPPProof:   ippProof,
	}, nil
}
