package provisions

import (
	"encoding/binary"
	"fmt"

	"github.com/bwesterb/go-ristretto"
	"golang.org/x/crypto/sha3"
)

// RangeBits is the width of every liability range proof.
const RangeBits = 64

// PedersenGens holds the two commitment generators. G is also the key
// generator, so an address public key is P = sk·G.
type PedersenGens struct {
	G *ristretto.Point
	H *ristretto.Point
}

func DefaultPedersenGens() *PedersenGens {
	var base ristretto.Point
	base.SetBase()

	h := sha3.New512()
	h.Write([]byte(PEDERSEN_H_DOMAIN_TAG))
	h.Write(base.Bytes())

	return &PedersenGens{
		G: &base,
		H: pointFromUniformBytes(h.Sum(nil)),
	}
}

// Commit computes value·G + blinding·H.
func (pg *PedersenGens) Commit(value, blinding *ristretto.Scalar) *ristretto.Point {
	return multiscalarMul([]*ristretto.Scalar{value, blinding}, []*ristretto.Point{pg.G, pg.H})
}

type BulletproofGens struct {
	GensCapacity  int64
	PartyCapacity int64
	GVec          [][]*ristretto.Point
	HVec          [][]*ristretto.Point
}

func NewBulletproofGens(gensCapacity, partyCapacity int64) *BulletproofGens {
	b := &BulletproofGens{
		GensCapacity:  0,
		PartyCapacity: partyCapacity,
		GVec:          make([][]*ristretto.Point, partyCapacity),
		HVec:          make([][]*ristretto.Point, partyCapacity),
	}
	b.IncreaseCapacity(gensCapacity)
	return b
}

func (b *BulletproofGens) IncreaseCapacity(capacity int64) {
	if b.GensCapacity >= capacity {
		return
	}
	for i := 0; i < int(b.PartyCapacity); i++ {
		var byte32 [4]byte
		binary.LittleEndian.PutUint32(byte32[:], uint32(i))
		label := []byte("G")
		label = append(label, byte32[:]...)
		chainG := NewGeneratorsChain(label)
		chainG.FastForward(b.GensCapacity)
		for j := b.GensCapacity; j < capacity; j++ {
			b.GVec[i] = append(b.GVec[i], chainG.Next())
		}

		label[0] = 'H'
		chainH := NewGeneratorsChain(label)
		chainH.FastForward(b.GensCapacity)
		for j := b.GensCapacity; j < capacity; j++ {
			b.HVec[i] = append(b.HVec[i], chainH.Next())
		}
	}
	b.GensCapacity = capacity
}

func (b *BulletproofGens) Share(j int) *BulletproofGensShare {
	return &BulletproofGensShare{
		Gens:  b,
		Share: j,
	}
}

// aggregated copies the first n generators of the first m parties, party by
// party. The inner product argument rewrites its vectors in place.
func (b *BulletproofGens) aggregated(n, m int64) ([]*ristretto.Point, []*ristretto.Point) {
	gVec := make([]*ristretto.Point, 0, n*m)
	hVec := make([]*ristretto.Point, 0, n*m)
	for j := 0; j < int(m); j++ {
		share := b.Share(j)
		for _, p := range share.G(n) {
			gVec = append(gVec, clonePoint(p))
		}
		for _, p := range share.H(n) {
			hVec = append(hVec, clonePoint(p))
		}
	}
	return gVec, hVec
}

type BulletproofGensShare struct {
	Gens  *BulletproofGens
	Share int
}

func (g *BulletproofGensShare) G(n int64) []*ristretto.Point {
	return g.Gens.GVec[g.Share][:n]
}

func (g *BulletproofGensShare) H(n int64) []*ristretto.Point {
	return g.Gens.HVec[g.Share][:n]
}

type GeneratorsChain struct {
	sha3.ShakeHash
}

func NewGeneratorsChain(label []byte) *GeneratorsChain {
	h := sha3.NewShake256()
	h.Write([]byte("GeneratorsChain"))
	h.Write(label)
	return &GeneratorsChain{h}
}

func (c *GeneratorsChain) FastForward(n int64) {
	for i := 0; i < int(n); i++ {
		var data [64]byte
		c.Read(data[:])
	}
}

func (c *GeneratorsChain) Next() *ristretto.Point {
	var data [64]byte
	c.Read(data[:])
	return pointFromUniformBytes(data[:])
}

// Params are the public parameters shared by prover and verifier.
type Params struct {
	Pedersen    *PedersenGens
	Bulletproof *BulletproofGens
}

func DefaultParams() *Params {
	return &Params{
		Pedersen:    DefaultPedersenGens(),
		Bulletproof: NewBulletproofGens(RangeBits, 1),
	}
}

func (p *Params) G() *ristretto.Point {
	return p.Pedersen.G
}

func (p *Params) H() *ristretto.Point {
	return p.Pedersen.H
}

func (p *Params) validate() error {
	if p == nil || p.Pedersen == nil || p.Pedersen.G == nil || p.Pedersen.H == nil {
		return fmt.Errorf("%w: missing pedersen generators", ErrParameterMismatch)
	}
	if p.Bulletproof == nil || p.Bulletproof.GensCapacity < RangeBits || p.Bulletproof.PartyCapacity < 1 {
		return fmt.Errorf("%w: bulletproof generators too small", ErrParameterMismatch)
	}
	if pointEqual(p.Pedersen.G, p.Pedersen.H) || isIdentity(p.Pedersen.H) {
		return fmt.Errorf("%w: degenerate generators", ErrParameterMismatch)
	}
	return nil
}
