package provisions

import (
	"encoding/hex"
	"fmt"

	"github.com/bwesterb/go-ristretto"
)

// Commitment is a Pedersen commitment v·G + r·H. It is never modified after
// creation; Add and Sub return new values.
type Commitment struct {
	point *ristretto.Point
}

func newCommitment(p *ristretto.Point) *Commitment {
	return &Commitment{point: clonePoint(p)}
}

// Commit fails with ErrInvalidScalar when either input is missing.
func Commit(params *Params, value, blinding *ristretto.Scalar) (*Commitment, error) {
	if value == nil || blinding == nil {
		return nil, fmt.Errorf("%w: missing value or blinding", ErrInvalidScalar)
	}
	return &Commitment{point: params.Pedersen.Commit(value, blinding)}, nil
}

func CommitUint64(params *Params, value uint64, blinding *ristretto.Scalar) (*Commitment, error) {
	return Commit(params, uint64ToScalar(value), blinding)
}

func (c *Commitment) Add(other *Commitment) *Commitment {
	var p ristretto.Point
	return &Commitment{point: p.Add(c.point, other.point)}
}

func (c *Commitment) Sub(other *Commitment) *Commitment {
	var p ristretto.Point
	return &Commitment{point: p.Sub(c.point, other.point)}
}

func (c *Commitment) Equal(other *Commitment) bool {
	if c == nil || other == nil {
		return c == other
	}
	return pointEqual(c.point, other.point)
}

func (c *Commitment) Bytes() []byte {
	return c.point.Bytes()
}

func (c *Commitment) Point() *ristretto.Point {
	return clonePoint(c.point)
}

func (c *Commitment) String() string {
	return hex.EncodeToString(c.Bytes())
}

// VerifyOpening recomputes Commit(value, blinding) and compares it with c.
func VerifyOpening(params *Params, c *Commitment, value, blinding *ristretto.Scalar) bool {
	if c == nil {
		return false
	}
	expected, err := Commit(params, value, blinding)
	if err != nil {
		return false
	}
	return c.Equal(expected)
}

func DecodeCommitment(buf []byte) (*Commitment, error) {
	p, err := DecodePoint(buf)
	if err != nil {
		return nil, err
	}
	return &Commitment{point: p}, nil
}

// sumCommitments folds a slice of commitments with group addition.
func sumCommitments(cs []*Commitment) *Commitment {
	sum := pointZero()
	for _, c := range cs {
		sum.Add(sum, c.point)
	}
	return &Commitment{point: sum}
}
