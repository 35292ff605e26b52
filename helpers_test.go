package provisions

import (
	"io"
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

// testReader is a deterministic randomness source.
func testReader(seed string) io.Reader {
	h := sha3.NewShake256()
	h.Write([]byte(seed))
	return h
}

func testScalar(t *testing.T, seed string) *ristretto.Scalar {
	s, err := randomScalar(testReader(seed))
	require.NoError(t, err)
	return s
}

// testAnonymitySet returns n addresses with balances 100+i and the secret key
// of every address. Balances of the given indices are overridden.
func testAnonymitySet(t *testing.T, n int, balances map[int]uint64) (AnonymitySet, []*ristretto.Scalar) {
	rng := testReader("anonymity set")
	set := make(AnonymitySet, n)
	keys := make([]*ristretto.Scalar, n)
	for i := range set {
		sk, err := randomScalar(rng)
		require.NoError(t, err)
		balance := uint64(100 + i)
		if b, ok := balances[i]; ok {
			balance = b
		}
		set[i] = &AddressEntry{PublicKey: PublicKey(sk), Balance: balance}
		keys[i] = sk
	}
	return set, keys
}

func testCustomers(balances ...uint64) []*Customer {
	customers := make([]*Customer, len(balances))
	for i, b := range balances {
		customers[i] = &Customer{ID: string(rune('a'+i)) + "@example.com", Balance: b}
	}
	return customers
}
