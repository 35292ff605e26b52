package provisions

import (
	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

const (
	PRIMITIVE     = "prim"
	SEQUENCE      = "seq"
	AGGREGATE     = "agg"
	AGGREGATE_END = "agg-end"
)

// Digest hashes the whole bundle into 32 bytes with a structured merlin
// transcript. Any change to any field changes the digest.
func Digest(proof *ProvisionsProof) []byte {
	t := merlin.NewTranscript(DIGESTIBLE_TRANSCRIPT)
	appendProvisionsProof(proof, t)
	return t.ExtractBytes([]byte(DIGEST_LABEL), 32)
}

func appendAggregate(field, name string, t *merlin.Transcript, body func()) {
	appendBytes([]byte(field), []byte(AGGREGATE), t)
	appendBytes([]byte("name"), []byte(name), t)
	body()
	appendBytes([]byte(field), []byte(AGGREGATE_END), t)
	appendBytes([]byte("name"), []byte(name), t)
}

func appendSequence(field string, n int, t *merlin.Transcript) {
	appendBytes([]byte(field), []byte(SEQUENCE), t)
	appendInt64("len", uint64(n), t)
}

func appendPrimitiveUint(field string, v uint64, t *merlin.Transcript) {
	appendBytes([]byte(field), []byte(PRIMITIVE), t)
	appendInt64("uint", v, t)
}

func appendPrimitiveBytes(field string, data []byte, t *merlin.Transcript) {
	appendBytes([]byte(field), []byte(PRIMITIVE), t)
	appendBytes([]byte("bytes"), data, t)
}

func appendRistretto(field string, p *ristretto.Point, t *merlin.Transcript) {
	appendBytes([]byte(field), []byte(PRIMITIVE), t)
	if p == nil {
		appendBytes([]byte("none"), nil, t)
		return
	}
	appendBytes([]byte("ristretto"), p.Bytes(), t)
}

func appendCommitment(field string, c *Commitment, t *merlin.Transcript) {
	var p *ristretto.Point
	if c != nil {
		p = c.point
	}
	appendRistretto(field, p, t)
}

func appendScalarField(field string, s *ristretto.Scalar, t *merlin.Transcript) {
	appendBytes([]byte(field), []byte(PRIMITIVE), t)
	if s == nil {
		appendBytes([]byte("none"), nil, t)
		return
	}
	appendBytes([]byte("scalar"), s.Bytes(), t)
}

func appendSigmaProof(field string, p *SigmaProof, t *merlin.Transcript) {
	appendAggregate(field, "SigmaProof", t, func() {
		if p == nil {
			return
		}
		appendSequence("commitments", len(p.Commitments), t)
		for _, T := range p.Commitments {
			appendRistretto("", T, t)
		}
		appendScalarField("challenge", p.Challenge, t)
		appendSequence("responses", len(p.Responses), t)
		for _, rs := range p.Responses {
			appendSequence("", len(rs), t)
			for _, s := range rs {
				appendScalarField("", s, t)
			}
		}
	})
}

func appendAnonymitySet(set AnonymitySet, t *merlin.Transcript) {
	appendSequence("anonymity_set", len(set), t)
	for _, entry := range set {
		appendAggregate("", "AddressEntry", t, func() {
			if entry == nil {
				return
			}
			appendRistretto("public_key", entry.PublicKey, t)
			appendPrimitiveUint("balance", entry.Balance, t)
		})
	}
}

func appendAssetsProof(proof *AssetsProof, t *merlin.Transcript) {
	appendAggregate("assets", "AssetsProof", t, func() {
		if proof == nil {
			return
		}
		appendSequence("addresses", len(proof.Addresses), t)
		for _, a := range proof.Addresses {
			appendAggregate("", "AddressProof", t, func() {
				if a == nil {
					return
				}
				appendCommitment("commitment", a.Commitment, t)
				if a.Proof != nil {
					appendSigmaProof("branch_zero", a.Proof.Branches[0], t)
					appendSigmaProof("branch_owned", a.Proof.Branches[1], t)
				}
			})
		}
	})
}

func appendLiabilityProof(proof *LiabilityProof, t *merlin.Transcript) {
	appendAggregate("liabilities", "LiabilityProof", t, func() {
		if proof == nil {
			return
		}
		appendSequence("leaves", len(proof.Leaves), t)
		for _, leaf := range proof.Leaves {
			appendAggregate("", "LiabilityLeaf", t, func() {
				if leaf == nil {
					return
				}
				appendPrimitiveBytes("cid", leaf.CID, t)
				appendCommitment("commitment", leaf.Commitment, t)
				if leaf.RangeProof.complete() {
					appendPrimitiveBytes("range_proof", leaf.RangeProof.ToBytes(), t)
				}
			})
		}
		if proof.Root != nil {
			appendCommitment("root_commitment", proof.Root.Commitment, t)
			appendPrimitiveBytes("root_digest", proof.Root.Digest, t)
		}
	})
}

func appendProvisionsProof(proof *ProvisionsProof, t *merlin.Transcript) {
	appendAggregate("provisions-proof", "ProvisionsProof", t, func() {
		if proof == nil {
			return
		}
		appendRistretto("G", proof.G, t)
		appendRistretto("H", proof.H, t)
		appendAnonymitySet(proof.AnonymitySet, t)
		appendAssetsProof(proof.Assets, t)
		appendLiabilityProof(proof.Liabilities, t)
		var solvency *SigmaProof
		if proof.Solvency != nil {
			solvency = proof.Solvency.Proof
		}
		appendSigmaProof("solvency", solvency, t)
	})
}
