package provisions

import (
	"fmt"
	"io"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// Relation states Result = Σ x_k·Bases[k] for secret scalars x_k.
type Relation struct {
	Bases  []*ristretto.Point
	Result *ristretto.Point
}

// Statement is a conjunction of relations.
type Statement []*Relation

// Witness holds one scalar per base for each relation of a statement.
type Witness [][]*ristretto.Scalar

// SigmaProof is a non-interactive proof for one statement: the first
// message T_j per relation, the challenge and the responses s_{j,k}.
type SigmaProof struct {
	Commitments []*ristretto.Point
	Challenge   *ristretto.Scalar
	Responses   [][]*ristretto.Scalar
}

// DisjunctiveProof proves one of two statements without revealing which.
// The branch challenges sum to the transcript challenge.
type DisjunctiveProof struct {
	Branches [2]*SigmaProof
}

func (st Statement) wellFormed() bool {
	if len(st) == 0 {
		return false
	}
	for _, rel := range st {
		if rel == nil || rel.Result == nil || len(rel.Bases) == 0 {
			return false
		}
		for _, b := range rel.Bases {
			if b == nil {
				return false
			}
		}
	}
	return true
}

func (st Statement) satisfiedBy(w Witness) bool {
	if len(w) != len(st) {
		return false
	}
	for j, rel := range st {
		if len(w[j]) != len(rel.Bases) {
			return false
		}
		for _, x := range w[j] {
			if x == nil {
				return false
			}
		}
		if !pointEqual(multiscalarMul(w[j], rel.Bases), rel.Result) {
			return false
		}
	}
	return true
}

func (st Statement) appendTo(t *merlin.Transcript) {
	appendInt64(SIGMA_STATEMENT_LABEL, uint64(len(st)), t)
	for _, rel := range st {
		appendInt64(SIGMA_RELATION_LABEL, uint64(len(rel.Bases)), t)
		for _, b := range rel.Bases {
			AppendPoint(SIGMA_BASE_LABEL, b, t)
		}
		AppendPoint(SIGMA_RESULT_LABEL, rel.Result, t)
	}
}

func (p *SigmaProof) wellFormed(st Statement) bool {
	if p == nil || p.Challenge == nil {
		return false
	}
	if len(p.Commitments) != len(st) || len(p.Responses) != len(st) {
		return false
	}
	for j, rel := range st {
		if p.Commitments[j] == nil || len(p.Responses[j]) != len(rel.Bases) {
			return false
		}
		for _, s := range p.Responses[j] {
			if s == nil {
				return false
			}
		}
	}
	return true
}

// holds checks Σ s_{j,k}·B_k == T_j + c·Y_j for every relation.
func (p *SigmaProof) holds(st Statement, c *ristretto.Scalar) bool {
	for j, rel := range st {
		lhs := vartimeMultiscalarMul(p.Responses[j], rel.Bases)
		var rhs, cy ristretto.Point
		cy.PublicScalarMult(rel.Result, c)
		rhs.Add(p.Commitments[j], &cy)
		if !pointEqual(lhs, &rhs) {
			return false
		}
	}
	return true
}

func nonceCommitments(st Statement, rng io.Reader) ([][]*ristretto.Scalar, []*ristretto.Point, error) {
	nonces := make([][]*ristretto.Scalar, len(st))
	commitments := make([]*ristretto.Point, len(st))
	for j, rel := range st {
		k, err := randomScalars(rng, len(rel.Bases))
		if err != nil {
			return nil, nil, err
		}
		nonces[j] = k
		commitments[j] = multiscalarMul(k, rel.Bases)
	}
	return nonces, commitments, nil
}

func respond(nonces [][]*ristretto.Scalar, w Witness, c *ristretto.Scalar) [][]*ristretto.Scalar {
	responses := make([][]*ristretto.Scalar, len(nonces))
	for j := range nonces {
		responses[j] = make([]*ristretto.Scalar, len(nonces[j]))
		for k := range nonces[j] {
			var s ristretto.Scalar
			s.Mul(c, w[j][k])
			responses[j][k] = s.Add(&s, nonces[j][k])
		}
	}
	return responses
}

// simulate picks the challenge and responses first and derives the first
// message T_j = Σ s·B − c·Y_j, so the branch verifies without a witness.
func simulate(st Statement, rng io.Reader) (*SigmaProof, error) {
	c, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	proof := &SigmaProof{
		Commitments: make([]*ristretto.Point, len(st)),
		Challenge:   c,
		Responses:   make([][]*ristretto.Scalar, len(st)),
	}
	for j, rel := range st {
		s, err := randomScalars(rng, len(rel.Bases))
		if err != nil {
			return nil, err
		}
		var cy ristretto.Point
		cy.ScalarMult(rel.Result, c)
		T := multiscalarMul(s, rel.Bases)
		proof.Commitments[j] = T.Sub(T, &cy)
		proof.Responses[j] = s
	}
	return proof, nil
}

// ProveStatement proves knowledge of w for every relation of st at once.
func ProveStatement(t *merlin.Transcript, st Statement, w Witness, rng io.Reader) (*SigmaProof, error) {
	if !st.wellFormed() {
		return nil, fmt.Errorf("%w: empty statement", ErrMalformedProof)
	}
	if !st.satisfiedBy(w) {
		return nil, ErrNoWitness
	}
	nonces, commitments, err := nonceCommitments(st, rng)
	if err != nil {
		return nil, err
	}

	appendBytes([]byte("dom-sep"), []byte(SIGMA_CONJUNCTION_DOMSEP), t)
	st.appendTo(t)
	for _, T := range commitments {
		AppendPoint(SIGMA_COMMITMENT_LABEL, T, t)
	}
	c := ChallengeScalar(SIGMA_CHALLENGE_LABEL, t)

	return &SigmaProof{
		Commitments: commitments,
		Challenge:   c,
		Responses:   respond(nonces, w, c),
	}, nil
}

func VerifyStatement(t *merlin.Transcript, st Statement, proof *SigmaProof) bool {
	if !st.wellFormed() || !proof.wellFormed(st) {
		return false
	}
	appendBytes([]byte("dom-sep"), []byte(SIGMA_CONJUNCTION_DOMSEP), t)
	st.appendTo(t)
	for _, T := range proof.Commitments {
		AppendPoint(SIGMA_COMMITMENT_LABEL, T, t)
	}
	c := ChallengeScalar(SIGMA_CHALLENGE_LABEL, t)
	if !c.Equals(proof.Challenge) {
		return false
	}
	return proof.holds(st, c)
}

// ProveOpening proves knowledge of (v, r) with C = v·G + r·H.
func ProveOpening(t *merlin.Transcript, params *Params, c *Commitment, value, blinding *ristretto.Scalar, rng io.Reader) (*SigmaProof, error) {
	appendBytes([]byte("dom-sep"), []byte(OPENING_DOMAIN_TAG), t)
	return ProveStatement(t, openingStatement(params, c), Witness{{value, blinding}}, rng)
}

func VerifyOpeningProof(t *merlin.Transcript, params *Params, c *Commitment, proof *SigmaProof) bool {
	if c == nil {
		return false
	}
	appendBytes([]byte("dom-sep"), []byte(OPENING_DOMAIN_TAG), t)
	return VerifyStatement(t, openingStatement(params, c), proof)
}

func openingStatement(params *Params, c *Commitment) Statement {
	return Statement{{Bases: []*ristretto.Point{params.G(), params.H()}, Result: c.point}}
}

func appendDisjunction(t *merlin.Transcript, statements [2]Statement, branches [2]*SigmaProof) *ristretto.Scalar {
	appendBytes([]byte("dom-sep"), []byte(SIGMA_DISJUNCTION_DOMSEP), t)
	for _, st := range statements {
		st.appendTo(t)
	}
	for _, b := range branches {
		for _, T := range b.Commitments {
			AppendPoint(SIGMA_COMMITMENT_LABEL, T, t)
		}
	}
	return ChallengeScalar(SIGMA_CHALLENGE_LABEL, t)
}

// ProveDisjunction proves statements[known] with w and simulates the other
// branch. It fails with ErrNoWitness when w does not satisfy the chosen one.
func ProveDisjunction(t *merlin.Transcript, statements [2]Statement, known int, w Witness, rng io.Reader) (*DisjunctiveProof, error) {
	if known != 0 && known != 1 {
		return nil, fmt.Errorf("%w: branch %d", ErrNoWitness, known)
	}
	for _, st := range statements {
		if !st.wellFormed() {
			return nil, fmt.Errorf("%w: empty statement", ErrMalformedProof)
		}
	}
	if !statements[known].satisfiedBy(w) {
		return nil, ErrNoWitness
	}

	other := 1 - known
	simulated, err := simulate(statements[other], rng)
	if err != nil {
		return nil, err
	}
	nonces, commitments, err := nonceCommitments(statements[known], rng)
	if err != nil {
		return nil, err
	}
	proven := &SigmaProof{Commitments: commitments}

	var branches [2]*SigmaProof
	branches[known] = proven
	branches[other] = simulated
	c := appendDisjunction(t, statements, branches)

	var share ristretto.Scalar
	proven.Challenge = share.Sub(c, simulated.Challenge)
	proven.Responses = respond(nonces, w, proven.Challenge)

	return &DisjunctiveProof{Branches: branches}, nil
}

func VerifyDisjunction(t *merlin.Transcript, statements [2]Statement, proof *DisjunctiveProof) bool {
	if proof == nil {
		return false
	}
	for i, st := range statements {
		if !st.wellFormed() || !proof.Branches[i].wellFormed(st) {
			return false
		}
	}
	c := appendDisjunction(t, statements, proof.Branches)

	var sum ristretto.Scalar
	sum.Add(proof.Branches[0].Challenge, proof.Branches[1].Challenge)
	if !sum.Equals(c) {
		return false
	}
	for i, st := range statements {
		if !proof.Branches[i].holds(st, proof.Branches[i].Challenge) {
			return false
		}
	}
	return true
}
