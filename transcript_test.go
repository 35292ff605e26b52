package provisions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript(t *testing.T) {
	assert := assert.New(t)

	challenge := func(n, m int64) []byte {
		tt := InitialTranscript(BULLETPROOF_DOMAIN_TAG)
		RangeproofDomainSep(n, m, tt)
		return ChallengeScalar("y", tt).Bytes()
	}
	assert.Equal(challenge(64, 1), challenge(64, 1))
	assert.NotEqual(challenge(64, 1), challenge(32, 1))
	assert.NotEqual(challenge(64, 1), challenge(64, 2))

	// the returned transcript is the one that was written to
	tt := InitialTranscript(BULLETPROOF_DOMAIN_TAG)
	assert.Same(tt, RangeproofDomainSep(64, 1, tt))

	a, b := InitialTranscript("a"), InitialTranscript("b")
	assert.NotEqual(ChallengeScalar("c", a).Bytes(), ChallengeScalar("c", b).Bytes())
}

func TestTranscriptBindsParams(t *testing.T) {
	params := DefaultParams()
	other := DefaultParams()
	other.Pedersen.H = PublicKey(testScalar(t, "other h"))

	t1, t2 := InitialTranscript("params"), InitialTranscript("params")
	appendParams(params, t1)
	appendParams(other, t2)
	assert.NotEqual(t, ChallengeScalar("c", t1).Bytes(), ChallengeScalar("c", t2).Bytes())
}
