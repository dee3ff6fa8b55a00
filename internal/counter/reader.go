package counter

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Fetch reads and decodes the counter account at addr. A missing account is
// the Absent snapshot, not an error; every other failure is a *ReadError.
func Fetch(ctx context.Context, r AccountReader, addr solana.PublicKey, disc []byte) (Snapshot, error) {
	data, err := r.ReadAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return Absent, nil
	}
	if err != nil {
		return Snapshot{}, &ReadError{Address: addr, Err: err}
	}
	snap, err := DecodeCounter(data, disc)
	if err != nil {
		return Snapshot{}, &ReadError{Address: addr, Err: err}
	}
	return snap, nil
}
