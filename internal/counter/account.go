package counter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
)

// DecodeCounter decodes counter account data: the account discriminator
// followed by a little-endian u64 count. Counts above math.MaxInt64 are
// rejected instead of wrapping.
func DecodeCounter(data, disc []byte) (Snapshot, error) {
	dec := bin.NewBorshDecoder(data)
	prefix, err := dec.ReadNBytes(len(disc))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: discriminator: %v", ErrDecode, err)
	}
	if !bytes.Equal(prefix, disc) {
		return Snapshot{}, fmt.Errorf("%w: discriminator %x, want %x", ErrDecode, prefix, disc)
	}
	count, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: count: %v", ErrDecode, err)
	}
	if count > math.MaxInt64 {
		return Snapshot{}, fmt.Errorf("%w: count %d overflows int64", ErrDecode, count)
	}
	return Value(int64(count)), nil
}

// EncodeCounter is the inverse of DecodeCounter. Negative counts have no
// on-chain representation.
func EncodeCounter(count int64, disc []byte) ([]byte, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrDecode, count)
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(disc, false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(uint64(count), binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
