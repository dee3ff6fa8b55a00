// Package counter is the client side of the on-chain counter program: it
// derives the per-wallet counter address, builds the program's instructions
// from its IDL, and reads the counter account back.
// Ledger access goes through the Transport interface so the package has no
// knowledge of RPC endpoints or wallets.
package counter

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Operation names one of the program's mutating instructions.
type Operation string

const (
	OpInitialize Operation = "initialize"
	OpIncrement  Operation = "increment"
	OpDecrement  Operation = "decrement"
	OpReset      Operation = "reset"
	OpClose      Operation = "close"
)

// Operations lists every operation in display order.
var Operations = []Operation{OpInitialize, OpIncrement, OpDecrement, OpReset, OpClose}

// ParseOperation returns the operation with the given instruction name.
func ParseOperation(name string) (Operation, error) {
	for _, op := range Operations {
		if string(op) == name {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", name)
}

// AllowedOn reports whether op may be attempted against snap. The program
// enforces the same rules; checking them here only avoids doomed transactions.
func (op Operation) AllowedOn(snap Snapshot) bool {
	if op == OpInitialize {
		return !snap.Present
	}
	return snap.Present
}

// Snapshot is a read-only view of the counter account. Present is false when
// the account has not been created yet or was closed.
type Snapshot struct {
	Present bool
	Count   int64
}

// Absent is the snapshot of an address holding no account.
var Absent = Snapshot{}

// Value returns a present snapshot holding count.
func Value(count int64) Snapshot {
	return Snapshot{Present: true, Count: count}
}

func (s Snapshot) String() string {
	if !s.Present {
		return "absent"
	}
	return fmt.Sprintf("%d", s.Count)
}

// Signer authorizes transactions on behalf of the connected wallet.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// AccountReader reads raw account data. Implementations return
// ErrAccountNotFound when the address holds no account.
type AccountReader interface {
	ReadAccount(ctx context.Context, addr solana.PublicKey) ([]byte, error)
}

// Transport submits instructions to the ledger and reads accounts back.
// Submit returns once the transaction reached "confirmed" commitment, and
// reads are made at the same commitment.
type Transport interface {
	AccountReader
	Submit(ctx context.Context, ix solana.Instruction, signer Signer) (solana.Signature, error)
}
