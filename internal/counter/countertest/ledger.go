// Package countertest provides an in-memory ledger and signer for testing
// code built on the counter package.
package countertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/gagliardetto/solana-go"
)

// Ledger is an in-memory counter program. It applies instructions with the
// program's rules and serves account reads from the resulting state, so a
// read issued after Submit returns always observes the write.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]uint64
	idl      *counter.IDL
	nextSig  byte

	submitErrs []error
	readErrs   []error
	rawData    map[solana.PublicKey][]byte

	// SubmitGate and ReadGate, when set, are received from before each
	// Submit or ReadAccount proceeds, letting tests hold calls in flight.
	SubmitGate chan struct{}
	ReadGate   chan struct{}

	Submits int
	Reads   int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	idl, err := counter.LoadIDL()
	if err != nil {
		panic(err)
	}
	return &Ledger{
		accounts: make(map[solana.PublicKey]uint64),
		rawData:  make(map[solana.PublicKey][]byte),
		idl:      idl,
	}
}

// Set stores a counter account at addr.
func (l *Ledger) Set(addr solana.PublicKey, count uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[addr] = count
}

// SetRaw stores arbitrary account data at addr, overriding any counter.
func (l *Ledger) SetRaw(addr solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rawData[addr] = data
}

// Count returns the stored count at addr and whether an account exists.
func (l *Ledger) Count(addr solana.PublicKey) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.accounts[addr]
	return n, ok
}

// FailSubmit queues err as the result of the next Submit.
func (l *Ledger) FailSubmit(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErrs = append(l.submitErrs, err)
}

// FailRead queues err as the result of the next ReadAccount.
func (l *Ledger) FailRead(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErrs = append(l.readErrs, err)
}

// ReadAccount implements counter.AccountReader.
func (l *Ledger) ReadAccount(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	if err := wait(ctx, l.ReadGate); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Reads++
	if len(l.readErrs) > 0 {
		err := l.readErrs[0]
		l.readErrs = l.readErrs[1:]
		return nil, err
	}
	if data, ok := l.rawData[addr]; ok {
		return data, nil
	}
	n, ok := l.accounts[addr]
	if !ok {
		return nil, counter.ErrAccountNotFound
	}
	disc, _ := l.idl.AccountDiscriminator("Counter")
	return counter.EncodeCounter(int64(n), disc)
}

// Submit implements counter.Transport.
func (l *Ledger) Submit(ctx context.Context, ix solana.Instruction, signer counter.Signer) (solana.Signature, error) {
	if err := wait(ctx, l.SubmitGate); err != nil {
		return solana.Signature{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Submits++
	if len(l.submitErrs) > 0 {
		err := l.submitErrs[0]
		l.submitErrs = l.submitErrs[1:]
		return solana.Signature{}, err
	}

	data, err := ix.Data()
	if err != nil {
		return solana.Signature{}, err
	}
	op, err := l.operation(data)
	if err != nil {
		return solana.Signature{}, err
	}
	accounts := ix.Accounts()
	if len(accounts) < 2 {
		return solana.Signature{}, errors.New("missing accounts")
	}
	addr := accounts[0].PublicKey
	if want, _ := counter.DeriveAddress(signer.PublicKey(), ix.ProgramID()); addr != want {
		return solana.Signature{}, fmt.Errorf("seeds constraint violated: %s", addr)
	}
	if err := l.apply(op, addr); err != nil {
		return solana.Signature{}, err
	}

	l.nextSig++
	var sig solana.Signature
	sig[0] = l.nextSig
	return sig, nil
}

func (l *Ledger) operation(data []byte) (counter.Operation, error) {
	for _, op := range counter.Operations {
		ix, err := l.idl.Instruction(op)
		if err != nil {
			return "", err
		}
		if bytes.Equal(ix.Discriminator, data) {
			return op, nil
		}
	}
	return "", errors.New("instruction fallback not found")
}

func (l *Ledger) apply(op counter.Operation, addr solana.PublicKey) error {
	n, exists := l.accounts[addr]
	if op != counter.OpInitialize && !exists {
		return errors.New("AccountNotInitialized")
	}
	switch op {
	case counter.OpInitialize:
		if exists {
			return errors.New("account already in use")
		}
		l.accounts[addr] = 0
	case counter.OpIncrement:
		l.accounts[addr] = n + 1
	case counter.OpDecrement:
		if n == 0 {
			return errors.New("custom program error: underflow")
		}
		l.accounts[addr] = n - 1
	case counter.OpReset:
		l.accounts[addr] = 0
	case counter.OpClose:
		delete(l.accounts, addr)
	}
	return nil
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signer is a counter.Signer backed by a fixed key. It never touches the
// transaction.
type Signer struct {
	Key solana.PublicKey
}

// NewSigner returns a signer with a fresh random key.
func NewSigner() *Signer {
	return &Signer{Key: solana.NewWallet().PublicKey()}
}

func (s *Signer) PublicKey() solana.PublicKey { return s.Key }

func (s *Signer) SignTransaction(context.Context, *solana.Transaction) error { return nil }
