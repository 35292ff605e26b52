package provisions

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// randomness is acquired once per construction call. Each independent unit of
// work gets its own HKDF stream, so workers never share a reader and the
// output does not depend on scheduling.
type randomness struct {
	seed []byte
}

func acquireRandomness(rng io.Reader) (*randomness, error) {
	if rng == nil {
		return nil, fmt.Errorf("randomness source is nil")
	}
	seed := make([]byte, 64)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, fmt.Errorf("randomness source: %w", err)
	}
	return &randomness{seed: seed}, nil
}

func (r *randomness) unit(label string, index int) io.Reader {
	info := make([]byte, 0, len(label)+8)
	info = append(info, label...)
	info = binary.LittleEndian.AppendUint64(info, uint64(index))
	return hkdf.New(sha512.New, r.seed, []byte(UNIT_RANDOMNESS_DOM_TAG), info)
}
