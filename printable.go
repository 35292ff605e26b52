package provisions

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/btcsuite/btcutil/base58"
	"google.golang.org/protobuf/encoding/protowire"
)

// RootID is a liability root digest. Its printable form is base58 over a
// little endian crc32 checksum followed by the wrapped digest.
type RootID []byte

const printableRootField protowire.Number = 1

func (id RootID) String() string {
	var data []byte
	data = protowire.AppendTag(data, printableRootField, protowire.BytesType)
	data = protowire.AppendBytes(data, id)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, crc32.ChecksumIEEE(data))
	buf = append(buf, data...)
	return base58.Encode(buf)
}

func ParseRootID(s string) (RootID, error) {
	data := base58.Decode(s)
	if len(data) < 4 {
		return nil, fmt.Errorf("invalid root id %s", s)
	}
	sum := make([]byte, 4)
	binary.LittleEndian.PutUint32(sum, crc32.ChecksumIEEE(data[4:]))
	if !bytes.Equal(sum, data[:4]) {
		return nil, fmt.Errorf("invalid root id checksum %s", s)
	}

	num, typ, n := protowire.ConsumeTag(data[4:])
	if n < 0 || num != printableRootField || typ != protowire.BytesType {
		return nil, fmt.Errorf("invalid root id wrapper %s", s)
	}
	digest, m := protowire.ConsumeBytes(data[4+n:])
	if m < 0 || 4+n+m != len(data) {
		return nil, fmt.Errorf("invalid root id wrapper %s", s)
	}
	return RootID(bytes.Clone(digest)), nil
}

func (r *LiabilityRoot) ID() RootID {
	return RootID(bytes.Clone(r.Digest))
}
