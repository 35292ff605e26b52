package provisions

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidScalar           = errors.New("invalid scalar")
	ErrInvalidPoint            = errors.New("invalid point")
	ErrOwnershipMismatch       = errors.New("ownership mismatch")
	ErrMalformedAnonymitySet   = errors.New("malformed anonymity set")
	ErrDisjunctiveProofFailure = errors.New("disjunctive proof failure")
	ErrRangeProofFailure       = errors.New("range proof failure")
	ErrMerklePathMismatch      = errors.New("merkle path mismatch")
	ErrInsolvent               = errors.New("insolvent")
	ErrSolvencyProofFailure    = errors.New("solvency proof failure")

	ErrNoWitness         = errors.New("no valid witness for either branch")
	ErrMalformedLedger   = errors.New("malformed ledger")
	ErrUnknownCustomer   = errors.New("unknown customer")
	ErrParameterMismatch = errors.New("parameter mismatch")
	ErrMalformedProof    = errors.New("malformed proof")
	ErrBadAttestation    = errors.New("bad attestation")
)

// ProofError names the sub-proof that failed so an auditor can locate it.
// Index is -1 when the failure is not tied to a position.
type ProofError struct {
	Kind     error
	Index    int
	Customer string
	Reason   string
}

func (err *ProofError) Error() string {
	msg := err.Kind.Error()
	if err.Index >= 0 {
		msg = fmt.Sprintf("%s at index %d", msg, err.Index)
	}
	if err.Customer != "" {
		msg = fmt.Sprintf("%s for customer %s", msg, err.Customer)
	}
	if err.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, err.Reason)
	}
	return msg
}

func (err *ProofError) Unwrap() error {
	return err.Kind
}

func indexError(kind error, index int, reason string) error {
	return &ProofError{Kind: kind, Index: index, Reason: reason}
}

func customerError(kind error, index int, customer, reason string) error {
	return &ProofError{Kind: kind, Index: index, Customer: customer, Reason: reason}
}

func kindError(kind error, reason string) error {
	return &ProofError{Kind: kind, Index: -1, Reason: reason}
}
