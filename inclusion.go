package provisions

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/bwesterb/go-ristretto"
)

// PathStep is the sibling of the running node on the way to the root.
type PathStep struct {
	Commitment *Commitment
	Digest     []byte
	// SiblingLeft is set when the sibling is the left child.
	SiblingLeft bool
}

// InclusionProof lets one customer check that their balance was counted.
type InclusionProof struct {
	CustomerID string
	Balance    uint64
	Blinding   *ristretto.Scalar
	Nonce      []byte
	LeafIndex  int
	Path       []*PathStep
}

func (t *LiabilityTree) IssueInclusionProof(customerID string) (*InclusionProof, error) {
	j, ok := t.index[customerID]
	if !ok {
		return nil, customerError(ErrUnknownCustomer, -1, customerID, "")
	}
	secret := t.secrets[j]

	var path []*PathStep
	for cur := j; t.nodes[cur].parent >= 0; cur = t.nodes[cur].parent {
		parent := t.nodes[t.nodes[cur].parent]
		sibling, left := parent.right, false
		if parent.right == cur {
			sibling, left = parent.left, true
		}
		path = append(path, &PathStep{
			Commitment:  t.nodes[sibling].commitment,
			Digest:      bytes.Clone(t.nodes[sibling].digest),
			SiblingLeft: left,
		})
	}

	return &InclusionProof{
		CustomerID: customerID,
		Balance:    secret.balance,
		Blinding:   cloneScalar(secret.blinding),
		Nonce:      bytes.Clone(secret.nonce),
		LeafIndex:  j,
		Path:       path,
	}, nil
}

// VerifyInclusion recomputes the path from the customer leaf up to root.
func VerifyInclusion(params *Params, root *LiabilityRoot, customerID string, balance uint64, blinding *ristretto.Scalar, proof *InclusionProof) error {
	if root == nil || root.Commitment == nil || proof == nil {
		return customerError(ErrMerklePathMismatch, -1, customerID, "missing root or proof")
	}
	c, err := CommitUint64(params, balance, blinding)
	if err != nil {
		return err
	}
	digest := leafDigest(deriveCID(customerID, proof.Nonce), c)
	for i, step := range proof.Path {
		if step == nil || step.Commitment == nil {
			return customerError(ErrMerklePathMismatch, proof.LeafIndex, customerID, fmt.Sprintf("incomplete step %d", i))
		}
		if step.SiblingLeft {
			c = step.Commitment.Add(c)
			digest = nodeDigest(step.Digest, digest, c)
		} else {
			c = c.Add(step.Commitment)
			digest = nodeDigest(digest, step.Digest, c)
		}
	}
	if !c.Equal(root.Commitment) || !bytes.Equal(digest, root.Digest) {
		return customerError(ErrMerklePathMismatch, proof.LeafIndex, customerID, "recomputed root differs")
	}
	return nil
}

type pathStepJSON struct {
	Commitment  string `json:"commitment"`
	Digest      string `json:"digest"`
	SiblingLeft bool   `json:"sibling_left"`
}

type inclusionProofJSON struct {
	CustomerID string          `json:"customer_id"`
	Balance    uint64          `json:"balance"`
	Blinding   string          `json:"blinding"`
	Nonce      string          `json:"nonce"`
	LeafIndex  int             `json:"leaf_index"`
	Path       []*pathStepJSON `json:"path"`
}

func (p *InclusionProof) MarshalJSON() ([]byte, error) {
	out := &inclusionProofJSON{
		CustomerID: p.CustomerID,
		Balance:    p.Balance,
		Blinding:   hex.EncodeToString(p.Blinding.Bytes()),
		Nonce:      hex.EncodeToString(p.Nonce),
		LeafIndex:  p.LeafIndex,
		Path:       make([]*pathStepJSON, len(p.Path)),
	}
	for i, step := range p.Path {
		out.Path[i] = &pathStepJSON{
			Commitment:  hex.EncodeToString(step.Commitment.Bytes()),
			Digest:      hex.EncodeToString(step.Digest),
			SiblingLeft: step.SiblingLeft,
		}
	}
	return json.Marshal(out)
}

func (p *InclusionProof) UnmarshalJSON(data []byte) error {
	var in inclusionProofJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	blinding, err := decodeHexScalar(in.Blinding)
	if err != nil {
		return err
	}
	nonce, err := hex.DecodeString(in.Nonce)
	if err != nil {
		return fmt.Errorf("%w: nonce: %w", ErrMalformedProof, err)
	}
	path := make([]*PathStep, len(in.Path))
	for i, step := range in.Path {
		if step == nil {
			return fmt.Errorf("%w: empty path step %d", ErrMalformedProof, i)
		}
		buf, err := hex.DecodeString(step.Commitment)
		if err != nil {
			return fmt.Errorf("%w: commitment: %w", ErrMalformedProof, err)
		}
		c, err := DecodeCommitment(buf)
		if err != nil {
			return err
		}
		digest, err := hex.DecodeString(step.Digest)
		if err != nil {
			return fmt.Errorf("%w: digest: %w", ErrMalformedProof, err)
		}
		path[i] = &PathStep{Commitment: c, Digest: digest, SiblingLeft: step.SiblingLeft}
	}

	*p = InclusionProof{
		CustomerID: in.CustomerID,
		Balance:    in.Balance,
		Blinding:   blinding,
		Nonce:      nonce,
		LeafIndex:  in.LeafIndex,
		Path:       path,
	}
	return nil
}

func decodeHexScalar(s string) (*ristretto.Scalar, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScalar, err)
	}
	return DecodeScalar(buf)
}
