package provisions

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bwesterb/go-ristretto"
	"github.com/dchest/blake2b"
)

const (
	ScalarSize = 32
	PointSize  = 32
)

func uint64ToScalar(i uint64) *ristretto.Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:], i)
	var s ristretto.Scalar
	return s.SetBytes(&buf)
}

func scalarZero() *ristretto.Scalar {
	var s ristretto.Scalar
	return s.SetZero()
}

func scalarOne() *ristretto.Scalar {
	var s ristretto.Scalar
	return s.SetOne()
}

func cloneScalar(s *ristretto.Scalar) *ristretto.Scalar {
	var r ristretto.Scalar
	r.SetZero()
	return r.Add(&r, s)
}

func pointZero() *ristretto.Point {
	var p ristretto.Point
	return p.SetZero()
}

func clonePoint(p *ristretto.Point) *ristretto.Point {
	var r ristretto.Point
	r.SetZero()
	return r.Add(&r, p)
}

// PublicKey returns private·G.
func PublicKey(private *ristretto.Scalar) *ristretto.Point {
	var point ristretto.Point
	return point.ScalarMultBase(private)
}

func pointEqual(a, b *ristretto.Point) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

func isIdentity(p *ristretto.Point) bool {
	return pointEqual(p, pointZero())
}

// DecodeScalar parses a canonical little endian scalar.
func DecodeScalar(buf []byte) (*ristretto.Scalar, error) {
	if len(buf) != ScalarSize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidScalar, len(buf))
	}
	var b32 [32]byte
	copy(b32[:], buf)
	var s ristretto.Scalar
	s.SetBytes(&b32)
	if !bytes.Equal(s.Bytes(), buf) {
		return nil, fmt.Errorf("%w: non-canonical encoding", ErrInvalidScalar)
	}
	return &s, nil
}

// DecodePoint parses a compressed ristretto255 point.
func DecodePoint(buf []byte) (*ristretto.Point, error) {
	if len(buf) != PointSize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPoint, len(buf))
	}
	var b32 [32]byte
	copy(b32[:], buf)
	var p ristretto.Point
	if !p.SetBytes(&b32) {
		return nil, fmt.Errorf("%w: invalid encoding %x", ErrInvalidPoint, buf)
	}
	return &p, nil
}

func multiscalarMul(scalars []*ristretto.Scalar, points []*ristretto.Point) *ristretto.Point {
	if len(scalars) != len(points) {
		panic(fmt.Sprintf("multiscalarMul lengths do not match %d, %d", len(scalars), len(points)))
	}
	var p ristretto.Point
	p.SetZero()
	for i := range scalars {
		var t ristretto.Point
		t.ScalarMult(points[i], scalars[i])
		p.Add(&p, &t)
	}
	return &p
}

// vartimeMultiscalarMul is only used on public inputs.
func vartimeMultiscalarMul(scalars []*ristretto.Scalar, points []*ristretto.Point) *ristretto.Point {
	if len(scalars) != len(points) {
		panic(fmt.Sprintf("vartimeMultiscalarMul lengths do not match %d, %d", len(scalars), len(points)))
	}
	var r ristretto.Point
	r.SetZero()
	for i := range scalars {
		var rr ristretto.Point
		rr.PublicScalarMult(points[i], scalars[i])
		r.Add(&r, &rr)
	}
	return &r
}

func pointFromUniformBytes(key []byte) *ristretto.Point {
	var r1Bytes, r2Bytes [32]byte
	copy(r1Bytes[:], key[:32])
	copy(r2Bytes[:], key[32:])
	var r, r1, r2 ristretto.Point
	return r.Add(r1.SetElligator(&r1Bytes), r2.SetElligator(&r2Bytes))
}

func fromBytesModOrderWide(data []byte) *ristretto.Scalar {
	var data64 [64]byte
	copy(data64[:], data)
	var hs ristretto.Scalar
	return hs.SetReduced(&data64)
}

// randomScalar draws a uniform scalar from rng.
func randomScalar(rng io.Reader) (*ristretto.Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return nil, fmt.Errorf("randomness source: %w", err)
	}
	var s ristretto.Scalar
	return s.SetReduced(&buf), nil
}

func randomScalars(rng io.Reader, n int) ([]*ristretto.Scalar, error) {
	out := make([]*ristretto.Scalar, n)
	for i := range out {
		s, err := randomScalar(rng)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func hash256(tag string, parts ...[]byte) []byte {
	hash := blake2b.New256()
	hash.Write([]byte(tag))
	for _, p := range parts {
		var l [8]byte
		binary.LittleEndian.PutUint64(l[:], uint64(len(p)))
		hash.Write(l[:])
		hash.Write(p)
	}
	return hash.Sum(nil)
}
