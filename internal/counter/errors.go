package counter

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrAccountNotFound is returned by an AccountReader for an address that
	// holds no account. Fetch turns it into an Absent snapshot.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDecode marks account data that is malformed or out of range.
	ErrDecode = errors.New("invalid counter account data")
)

// SubmissionError reports a rejected or unconfirmed write: the wallet
// refused to sign, the RPC node rejected it, or the program failed.
type SubmissionError struct {
	Op  Operation
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ReadError reports a failed account read, including decode failures.
type ReadError struct {
	Address solana.PublicKey
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Address, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
