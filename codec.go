package provisions

import (
	"fmt"

	"github.com/bwesterb/go-ristretto"
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout, protobuf encoded:
//
//	ProvisionsProof  1 G, 2 H, 3 repeated AddressEntry, 4 AssetsProof,
//	                 5 LiabilityProof, 6 SigmaProof (solvency)
//	AddressEntry     1 public_key, 2 balance
//	AssetsProof      1 repeated AddressProof
//	AddressProof     1 commitment, 2 SigmaProof (zero), 3 SigmaProof (owned)
//	LiabilityProof   1 repeated LiabilityLeaf, 2 root_commitment, 3 root_digest
//	LiabilityLeaf    1 cid, 2 commitment, 3 range_proof
//	SigmaProof       1 repeated commitment, 2 challenge, 3 repeated Responses
//	Responses        1 repeated scalar
//	InclusionProof   1 customer_id, 2 balance, 3 blinding, 4 nonce,
//	                 5 leaf_index, 6 repeated PathStep
//	PathStep         1 commitment, 2 digest, 3 sibling_left

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// consumeFields walks a message and hands every field to fn. Unknown wire
// types are skipped.
func consumeFields(b []byte, fn func(num protowire.Number, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedProof, protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %w", ErrMalformedProof, num, protowire.ParseError(m))
			}
			if err := fn(num, v, 0); err != nil {
				return err
			}
			b = b[m:]
		case protowire.VarintType:
			x, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %w", ErrMalformedProof, num, protowire.ParseError(m))
			}
			if err := fn(num, nil, x); err != nil {
				return err
			}
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %w", ErrMalformedProof, num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return nil
}

func encodeSigmaProof(p *SigmaProof) []byte {
	var b []byte
	if p == nil {
		return b
	}
	for _, T := range p.Commitments {
		b = appendBytesField(b, 1, T.Bytes())
	}
	if p.Challenge != nil {
		b = appendBytesField(b, 2, p.Challenge.Bytes())
	}
	for _, rs := range p.Responses {
		var inner []byte
		for _, s := range rs {
			inner = appendBytesField(inner, 1, s.Bytes())
		}
		b = appendBytesField(b, 3, inner)
	}
	return b
}

func decodeSigmaProof(buf []byte) (*SigmaProof, error) {
	p := &SigmaProof{}
	err := consumeFields(buf, func(num protowire.Number, v []byte, _ uint64) error {
		switch num {
		case 1:
			T, err := DecodePoint(v)
			if err != nil {
				return err
			}
			p.Commitments = append(p.Commitments, T)
		case 2:
			c, err := DecodeScalar(v)
			if err != nil {
				return err
			}
			p.Challenge = c
		case 3:
			var rs []*ristretto.Scalar
			err := consumeFields(v, func(num protowire.Number, v []byte, _ uint64) error {
				if num != 1 {
					return nil
				}
				s, err := DecodeScalar(v)
				if err != nil {
					return err
				}
				rs = append(rs, s)
				return nil
			})
			if err != nil {
				return err
			}
			p.Responses = append(p.Responses, rs)
		}
		return nil
	})
	return p, err
}

func encodeAddressEntry(e *AddressEntry) []byte {
	var b []byte
	b = appendBytesField(b, 1, e.PublicKey.Bytes())
	return appendVarintField(b, 2, e.Balance)
}

func decodeAddressEntry(buf []byte) (*AddressEntry, error) {
	e := &AddressEntry{}
	err := consumeFields(buf, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case 1:
			p, err := DecodePoint(v)
			if err != nil {
				return err
			}
			e.PublicKey = p
		case 2:
			e.Balance = x
		}
		return nil
	})
	return e, err
}

func encodeAssetsProof(a *AssetsProof) ([]byte, error) {
	var b []byte
	for i, p := range a.Addresses {
		if p == nil || p.Commitment == nil || p.Proof == nil {
			return nil, indexError(ErrMalformedProof, i, "incomplete address proof")
		}
		var inner []byte
		inner = appendBytesField(inner, 1, p.Commitment.Bytes())
		inner = appendBytesField(inner, 2, encodeSigmaProof(p.Proof.Branches[0]))
		inner = appendBytesField(inner, 3, encodeSigmaProof(p.Proof.Branches[1]))
		b = appendBytesField(b, 1, inner)
	}
	return b, nil
}

func decodeAssetsProof(buf []byte) (*AssetsProof, error) {
	a := &AssetsProof{}
	err := consumeFields(buf, func(num protowire.Number, v []byte, _ uint64) error {
		if num != 1 {
			return nil
		}
		p := &AddressProof{Proof: &DisjunctiveProof{}}
		err := consumeFields(v, func(num protowire.Number, v []byte, _ uint64) error {
			var err error
			switch num {
			case 1:
				p.Commitment, err = DecodeCommitment(v)
			case 2:
				p.Proof.Branches[0], err = decodeSigmaProof(v)
			case 3:
				p.Proof.Branches[1], err = decodeSigmaProof(v)
			}
			return err
		})
		if err != nil {
			return err
		}
		a.Addresses = append(a.Addresses, p)
		return nil
	})
	return a, err
}

func encodeLiabilityProof(l *LiabilityProof) ([]byte, error) {
	var b []byte
	for j, leaf := range l.Leaves {
		if leaf == nil || leaf.Commitment == nil || !leaf.RangeProof.complete() {
			return nil, indexError(ErrMalformedProof, j, "incomplete liability leaf")
		}
		var inner []byte
		inner = appendBytesField(inner, 1, leaf.CID)
		inner = appendBytesField(inner, 2, leaf.Commitment.Bytes())
		inner = appendBytesField(inner, 3, leaf.RangeProof.ToBytes())
		b = appendBytesField(b, 1, inner)
	}
	if l.Root != nil {
		if l.Root.Commitment == nil {
			return nil, kindError(ErrMalformedProof, "liability root without commitment")
		}
		b = appendBytesField(b, 2, l.Root.Commitment.Bytes())
		b = appendBytesField(b, 3, l.Root.Digest)
	}
	return b, nil
}

func decodeLiabilityProof(buf []byte) (*LiabilityProof, error) {
	l := &LiabilityProof{Root: &LiabilityRoot{}}
	err := consumeFields(buf, func(num protowire.Number, v []byte, _ uint64) error {
		var err error
		switch num {
		case 1:
			leaf := &LiabilityLeaf{}
			err = consumeFields(v, func(num protowire.Number, v []byte, _ uint64) error {
				var err error
				switch num {
				case 1:
					leaf.CID = append([]byte(nil), v...)
				case 2:
					leaf.Commitment, err = DecodeCommitment(v)
				case 3:
					leaf.RangeProof, err = RangeProofFromBytes(v)
				}
				return err
			})
			l.Leaves = append(l.Leaves, leaf)
		case 2:
			l.Root.Commitment, err = DecodeCommitment(v)
		case 3:
			l.Root.Digest = append([]byte(nil), v...)
		}
		return err
	})
	return l, err
}

func (p *ProvisionsProof) MarshalBinary() ([]byte, error) {
	if p.G == nil || p.H == nil || p.Assets == nil || p.Liabilities == nil || p.Solvency == nil {
		return nil, fmt.Errorf("%w: incomplete proof", ErrMalformedProof)
	}
	assets, err := encodeAssetsProof(p.Assets)
	if err != nil {
		return nil, err
	}
	liabilities, err := encodeLiabilityProof(p.Liabilities)
	if err != nil {
		return nil, err
	}

	var b []byte
	b = appendBytesField(b, 1, p.G.Bytes())
	b = appendBytesField(b, 2, p.H.Bytes())
	for i, e := range p.AnonymitySet {
		if e == nil || e.PublicKey == nil {
			return nil, indexError(ErrMalformedProof, i, "incomplete address entry")
		}
		b = appendBytesField(b, 3, encodeAddressEntry(e))
	}
	b = appendBytesField(b, 4, assets)
	b = appendBytesField(b, 5, liabilities)
	b = appendBytesField(b, 6, encodeSigmaProof(p.Solvency.Proof))
	return b, nil
}

func (p *ProvisionsProof) UnmarshalBinary(data []byte) error {
	var out ProvisionsProof
	err := consumeFields(data, func(num protowire.Number, v []byte, _ uint64) error {
		var err error
		switch num {
		case 1:
			out.G, err = DecodePoint(v)
		case 2:
			out.H, err = DecodePoint(v)
		case 3:
			var e *AddressEntry
			e, err = decodeAddressEntry(v)
			out.AnonymitySet = append(out.AnonymitySet, e)
		case 4:
			out.Assets, err = decodeAssetsProof(v)
		case 5:
			out.Liabilities, err = decodeLiabilityProof(v)
		case 6:
			var s *SigmaProof
			s, err = decodeSigmaProof(v)
			out.Solvency = &SolvencyProof{Proof: s}
		}
		return err
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

func (p *InclusionProof) MarshalBinary() ([]byte, error) {
	if p.Blinding == nil {
		return nil, fmt.Errorf("%w: missing blinding", ErrMalformedProof)
	}
	var b []byte
	b = appendBytesField(b, 1, []byte(p.CustomerID))
	b = appendVarintField(b, 2, p.Balance)
	b = appendBytesField(b, 3, p.Blinding.Bytes())
	b = appendBytesField(b, 4, p.Nonce)
	b = appendVarintField(b, 5, uint64(p.LeafIndex))
	for i, step := range p.Path {
		if step == nil || step.Commitment == nil {
			return nil, indexError(ErrMalformedProof, i, "incomplete path step")
		}
		var inner []byte
		inner = appendBytesField(inner, 1, step.Commitment.Bytes())
		inner = appendBytesField(inner, 2, step.Digest)
		inner = appendVarintField(inner, 3, protowire.EncodeBool(step.SiblingLeft))
		b = appendBytesField(b, 6, inner)
	}
	return b, nil
}

func (p *InclusionProof) UnmarshalBinary(data []byte) error {
	var out InclusionProof
	err := consumeFields(data, func(num protowire.Number, v []byte, x uint64) error {
		var err error
		switch num {
		case 1:
			out.CustomerID = string(v)
		case 2:
			out.Balance = x
		case 3:
			out.Blinding, err = DecodeScalar(v)
		case 4:
			out.Nonce = append([]byte(nil), v...)
		case 5:
			out.LeafIndex = int(x)
		case 6:
			step := &PathStep{}
			err = consumeFields(v, func(num protowire.Number, v []byte, x uint64) error {
				var err error
				switch num {
				case 1:
					step.Commitment, err = DecodeCommitment(v)
				case 2:
					step.Digest = append([]byte(nil), v...)
				case 3:
					step.SiblingLeft = protowire.DecodeBool(x)
				}
				return err
			})
			out.Path = append(out.Path, step)
		}
		return err
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}
