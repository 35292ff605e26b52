package provisions

import (
	"encoding/hex"
	"fmt"

	"github.com/ChainSafe/go-schnorrkel"
)

// Attestation is the custodian's sr25519 signature over Digest(proof).
type Attestation struct {
	Signature [64]byte
}

func (a *Attestation) String() string {
	return hex.EncodeToString(a.Signature[:])
}

func ParseAttestation(s string) (*Attestation, error) {
	buf, err := hex.DecodeString(s)
	if err != nil || len(buf) != 64 {
		return nil, fmt.Errorf("%w: invalid signature encoding", ErrBadAttestation)
	}
	a := &Attestation{}
	copy(a.Signature[:], buf)
	return a, nil
}

func Attest(proof *ProvisionsProof, secret *schnorrkel.SecretKey) (*Attestation, error) {
	t := schnorrkel.NewSigningContext([]byte(ATTESTATION_SIGNING_CTX), Digest(proof))
	sig, err := secret.Sign(t)
	if err != nil {
		return nil, err
	}
	return &Attestation{Signature: sig.Encode()}, nil
}

func VerifyAttestation(proof *ProvisionsProof, public *schnorrkel.PublicKey, a *Attestation) error {
	if public == nil || a == nil {
		return fmt.Errorf("%w: missing key or signature", ErrBadAttestation)
	}
	signature := schnorrkel.Signature{}
	if err := signature.Decode(a.Signature); err != nil {
		return fmt.Errorf("%w: %w", ErrBadAttestation, err)
	}
	t := schnorrkel.NewSigningContext([]byte(ATTESTATION_SIGNING_CTX), Digest(proof))
	if !public.Verify(&signature, t) {
		return fmt.Errorf("%w: signature rejected", ErrBadAttestation)
	}
	return nil
}

// AttestationPublicKey parses a compressed ristretto255 custodian key.
func AttestationPublicKey(buf []byte) (*schnorrkel.PublicKey, error) {
	if _, err := DecodePoint(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadAttestation, err)
	}
	var key32 [32]byte
	copy(key32[:], buf)
	return schnorrkel.NewPublicKey(key32), nil
}
