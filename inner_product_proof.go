package provisions

import (
	"fmt"
	"math/bits"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

type InnerProductProof struct {
	LVec []*ristretto.Point
	RVec []*ristretto.Point
	A, B *ristretto.Scalar
}

func CreateInnerProductProof(transcript *merlin.Transcript, Q *ristretto.Point, gFactors, hFactors []*ristretto.Scalar, gVec, hVec []*ristretto.Point, aVec, bVec []*ristretto.Scalar) (*InnerProductProof, error) {
	n := len(gVec)

	if len(hVec) != n ||
		len(aVec) != n ||
		len(bVec) != n ||
		len(gFactors) != n ||
		len(hFactors) != n {
		return nil, fmt.Errorf("CreateInnerProductProof invalid input vectors %d, %d, %d, %d, %d, %d", len(gVec), len(hVec), len(aVec), len(bVec), len(gFactors), len(hFactors))
	}
	if n == 0 || bits.OnesCount32(uint32(n)) > 1 {
		return nil, fmt.Errorf("CreateInnerProductProof invalid n %d", n)
	}

	G := gVec
	H := hVec
	a := aVec
	b := bVec

	InnerproductDomainSep(uint64(n), transcript)

	var LVec, RVec []*ristretto.Point

	// The first round folds the generator factors into G and H.
	if n != 1 {
		n = n / 2
		aL, aR := a[:n], a[n:]
		bL, bR := b[:n], b[n:]
		gL, gR := G[:n], G[n:]
		hL, hR := H[:n], H[n:]

		cL := innerProduct(aL, bR)
		cR := innerProduct(aR, bL)

		scalarsL := make([]*ristretto.Scalar, 0, 2*n+1)
		for i := range aL {
			var r ristretto.Scalar
			scalarsL = append(scalarsL, r.Mul(aL[i], gFactors[n+i]))
		}
		for i := range bR {
			var r ristretto.Scalar
			scalarsL = append(scalarsL, r.Mul(bR[i], hFactors[i]))
		}
		scalarsL = append(scalarsL, cL)
		pointsL := make([]*ristretto.Point, 0, 2*n+1)
		pointsL = append(pointsL, gR...)
		pointsL = append(pointsL, hL...)
		pointsL = append(pointsL, Q)
		L := vartimeMultiscalarMul(scalarsL, pointsL)

		scalarsR := make([]*ristretto.Scalar, 0, 2*n+1)
		for i := range aR {
			var r ristretto.Scalar
			scalarsR = append(scalarsR, r.Mul(aR[i], gFactors[i]))
		}
		for i := range bL {
			var r ristretto.Scalar
			scalarsR = append(scalarsR, r.Mul(bL[i], hFactors[n+i]))
		}
		scalarsR = append(scalarsR, cR)
		pointsR := make([]*ristretto.Point, 0, 2*n+1)
		pointsR = append(pointsR, gL...)
		pointsR = append(pointsR, hR...)
		pointsR = append(pointsR, Q)
		R := vartimeMultiscalarMul(scalarsR, pointsR)

		LVec = append(LVec, L)
		RVec = append(RVec, R)

		AppendPoint("L", L, transcript)
		AppendPoint("R", R, transcript)

		u := ChallengeScalar("u", transcript)
		var uInv ristretto.Scalar
		uInv.Inverse(u)

		for i := 0; i < n; i++ {
			var r1, r2 ristretto.Scalar
			aL[i].Add(r1.Mul(aL[i], u), r2.Mul(&uInv, aR[i]))
			var r3, r4 ristretto.Scalar
			bL[i].Add(r3.Mul(bL[i], &uInv), r4.Mul(u, bR[i]))
			var r5, r6 ristretto.Scalar
			r5.Mul(&uInv, gFactors[i])
			r6.Mul(u, gFactors[n+i])
			gL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&r5, &r6}, []*ristretto.Point{gL[i], gR[i]})
			var r7, r8 ristretto.Scalar
			r7.Mul(u, hFactors[i])
			r8.Mul(&uInv, hFactors[n+i])
			hL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&r7, &r8}, []*ristretto.Point{hL[i], hR[i]})
		}

		a = aL
		b = bL
		G = gL
		H = hL
	}

	for n != 1 {
		n = n / 2

		aL, aR := a[:n], a[n:]
		bL, bR := b[:n], b[n:]
		gL, gR := G[:n], G[n:]
		hL, hR := H[:n], H[n:]

		cL := innerProduct(aL, bR)
		cR := innerProduct(aR, bL)

		scalarsL := make([]*ristretto.Scalar, 0, 2*n+1)
		scalarsL = append(scalarsL, aL...)
		scalarsL = append(scalarsL, bR...)
		scalarsL = append(scalarsL, cL)
		pointsL := make([]*ristretto.Point, 0, 2*n+1)
		pointsL = append(pointsL, gR...)
		pointsL = append(pointsL, hL...)
		pointsL = append(pointsL, Q)
		L := vartimeMultiscalarMul(scalarsL, pointsL)

		scalarsR := make([]*ristretto.Scalar, 0, 2*n+1)
		scalarsR = append(scalarsR, aR...)
		scalarsR = append(scalarsR, bL...)
		scalarsR = append(scalarsR, cR)
		pointsR := make([]*ristretto.Point, 0, 2*n+1)
		pointsR = append(pointsR, gL...)
		pointsR = append(pointsR, hR...)
		pointsR = append(pointsR, Q)
		R := vartimeMultiscalarMul(scalarsR, pointsR)

		LVec = append(LVec, L)
		RVec = append(RVec, R)
		AppendPoint("L", L, transcript)
		AppendPoint("R", R, transcript)

		u := ChallengeScalar("u", transcript)
		var uInv ristretto.Scalar
		uInv.Inverse(u)

		for i := 0; i < n; i++ {
			var r1, r2 ristretto.Scalar
			aL[i].Add(r1.Mul(aL[i], u), r2.Mul(&uInv, aR[i]))
			var r3, r4 ristretto.Scalar
			bL[i].Add(r3.Mul(bL[i], &uInv), r4.Mul(u, bR[i]))
			gL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&uInv, u}, []*ristretto.Point{gL[i], gR[i]})
			hL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{u, &uInv}, []*ristretto.Point{hL[i], hR[i]})
		}

		a = aL
		b = bL
		G = gL
		H = hL
	}

	return &InnerProductProof{
		LVec: LVec,
		RVec: RVec,
		A:    a[0],
		B:    b[0],
	}, nil
}

// verificationScalars replays the transcript and returns u_j², u_j⁻² and the
// folding scalars s_i for a vector of length n.
func (p *InnerProductProof) verificationScalars(n int, transcript *merlin.Transcript) ([]*ristretto.Scalar, []*ristretto.Scalar, []*ristretto.Scalar, error) {
	lgN := len(p.LVec)
	if lgN >= 32 || len(p.RVec) != lgN || n != 1<<uint(lgN) {
		return nil, nil, nil, fmt.Errorf("inner product proof has %d rounds for n %d", lgN, n)
	}

	InnerproductDomainSep(uint64(n), transcript)

	challenges := make([]*ristretto.Scalar, lgN)
	for i := range p.LVec {
		AppendPoint("L", p.LVec[i], transcript)
		AppendPoint("R", p.RVec[i], transcript)
		challenges[i] = ChallengeScalar("u", transcript)
	}

	allInv := scalarOne()
	uSq := make([]*ristretto.Scalar, lgN)
	uInvSq := make([]*ristretto.Scalar, lgN)
	for i, u := range challenges {
		var inv, sq, invSq ristretto.Scalar
		inv.Inverse(u)
		allInv.Mul(allInv, &inv)
		uSq[i] = sq.Mul(u, u)
		uInvSq[i] = invSq.Mul(&inv, &inv)
	}

	s := make([]*ristretto.Scalar, n)
	s[0] = allInv
	for i := 1; i < n; i++ {
		lgI := bits.Len(uint(i)) - 1
		k := 1 << uint(lgI)
		var si ristretto.Scalar
		s[i] = si.Mul(s[i-k], uSq[(lgN-1)-lgI])
	}
	return uSq, uInvSq, s, nil
}

func (p *InnerProductProof) ToBytes() []byte {
	var buf []byte
	for i := range p.LVec {
		buf = append(buf, p.LVec[i].Bytes()...)
		buf = append(buf, p.RVec[i].Bytes()...)
	}
	buf = append(buf, p.A.Bytes()...)
	buf = append(buf, p.B.Bytes()...)
	return buf
}

func InnerProductProofFromBytes(buf []byte) (*InnerProductProof, error) {
	if len(buf)%32 != 0 || len(buf) < 64 {
		return nil, fmt.Errorf("%w: inner product proof length %d", ErrMalformedProof, len(buf))
	}
	points := (len(buf) - 64) / 32
	if points%2 != 0 {
		return nil, fmt.Errorf("%w: inner product proof length %d", ErrMalformedProof, len(buf))
	}
	p := &InnerProductProof{}
	for i := 0; i < points/2; i++ {
		L, err := DecodePoint(buf[64*i : 64*i+32])
		if err != nil {
			return nil, err
		}
		R, err := DecodePoint(buf[64*i+32 : 64*i+64])
		if err != nil {
			return nil, err
		}
		p.LVec = append(p.LVec, L)
		p.RVec = append(p.RVec, R)
	}
	pos := len(buf) - 64
	var err error
	if p.A, err = DecodeScalar(buf[pos : pos+32]); err != nil {
		return nil, err
	}
	if p.B, err = DecodeScalar(buf[pos+32:]); err != nil {
		return nil, err
	}
	return p, nil
}
