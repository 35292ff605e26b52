package provisions

import (
	"encoding/binary"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

const (
	PEDERSEN_H_DOMAIN_TAG    = "provisions_pedersen_h"
	BULLETPROOF_DOMAIN_TAG   = "provisions_bulletproof_transcript"
	OPENING_DOMAIN_TAG       = "provisions_opening"
	ASSET_DOMAIN_TAG         = "provisions_asset_ownership"
	SOLVENCY_DOMAIN_TAG      = "provisions_solvency"
	CID_DOMAIN_TAG           = "provisions_cid"
	LEAF_DOMAIN_TAG          = "provisions_leaf"
	NODE_DOMAIN_TAG          = "provisions_node"
	UNIT_RANDOMNESS_DOM_TAG  = "provisions_unit_randomness"
	ATTESTATION_SIGNING_CTX  = "provisions attestation"
	DIGESTIBLE_TRANSCRIPT    = "digestible"
	DIGEST_LABEL             = "digest32"
	SIGMA_CHALLENGE_LABEL    = "c"
	SIGMA_COMMITMENT_LABEL   = "T"
	SIGMA_RELATION_LABEL     = "relation"
	SIGMA_BASE_LABEL         = "base"
	SIGMA_RESULT_LABEL       = "result"
	SIGMA_STATEMENT_LABEL    = "statement"
	SIGMA_DISJUNCTION_DOMSEP = "or v1"
	SIGMA_CONJUNCTION_DOMSEP = "and v1"
)

func InitialTranscript(label string) *merlin.Transcript {
	return merlin.NewTranscript(label)
}

func RangeproofDomainSep(n int64, m int64, t *merlin.Transcript) *merlin.Transcript {
	appendBytes([]byte("dom-sep"), []byte("rangeproof v1"), t)

	appendInt64("n", uint64(n), t)
	appendInt64("m", uint64(m), t)
	return t
}

func InnerproductDomainSep(n uint64, t *merlin.Transcript) {
	appendBytes([]byte("dom-sep"), []byte("ipp v1"), t)
	appendInt64("n", n, t)
}

func appendBytes(field, data []byte, t *merlin.Transcript) {
	t.AppendMessage(field, data)
}

func appendInt64(label string, i uint64, t *merlin.Transcript) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, i)
	appendBytes([]byte(label), buf, t)
}

func ChallengeScalar(label string, t *merlin.Transcript) *ristretto.Scalar {
	data := t.ExtractBytes([]byte(label), 64)
	return fromBytesModOrderWide(data)
}

func AppendScalar(label string, s *ristretto.Scalar, t *merlin.Transcript) {
	appendBytes([]byte(label), s.Bytes(), t)
}

func AppendPoint(label string, p *ristretto.Point, t *merlin.Transcript) {
	appendBytes([]byte(label), p.Bytes(), t)
}

// appendParams binds a transcript to the commitment generators.
func appendParams(params *Params, t *merlin.Transcript) {
	AppendPoint("G", params.G(), t)
	AppendPoint("H", params.H(), t)
}
