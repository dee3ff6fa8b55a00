// Package client connects the counter core to a Solana RPC node: an HTTP
// JSON-RPC transport for submitting transactions and reading accounts, and a
// WebSocket watcher that reports changes to the counter account.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 60 * time.Second
)

var (
	// ErrConfirmTimeout is returned when a sent transaction did not reach
	// the target commitment within the confirmation timeout.
	ErrConfirmTimeout = errors.New("transaction not confirmed in time")

	// ErrBlockhashExpired is returned when the transaction's blockhash
	// expired before it was confirmed. The transaction can no longer land.
	ErrBlockhashExpired = errors.New("blockhash expired before confirmation")
)

// RPCTransport implements counter.Transport over Solana JSON-RPC. Every
// call uses the same commitment ("confirmed" by default) so a read issued
// after Submit returns observes the write.
type RPCTransport struct {
	rpc          *rpc.Client
	endpoint     string
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// Option customizes an RPCTransport.
type Option func(*RPCTransport)

// WithConfirmPolling sets how often signature status is polled and how long
// Submit waits for confirmation.
func WithConfirmPolling(interval, timeout time.Duration) Option {
	return func(t *RPCTransport) {
		t.pollInterval = interval
		t.timeout = timeout
	}
}

// WithLogger sets the transport's logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *RPCTransport) { t.logger = l }
}

// NewRPCTransport creates a transport for the given HTTP endpoint.
func NewRPCTransport(endpoint string, opts ...Option) *RPCTransport {
	t := &RPCTransport{
		rpc:          rpc.New(endpoint),
		endpoint:     endpoint,
		commitment:   rpc.CommitmentConfirmed,
		pollInterval: defaultPollInterval,
		timeout:      defaultConfirmTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint returns the RPC URL.
func (t *RPCTransport) Endpoint() string { return t.endpoint }

// Commitment returns the commitment used for confirmation and reads.
func (t *RPCTransport) Commitment() rpc.CommitmentType { return t.commitment }

// Submit builds a transaction paid by signer, signs and sends it, then waits
// until it is confirmed.
func (t *RPCTransport) Submit(ctx context.Context, ix solana.Instruction, signer counter.Signer) (solana.Signature, error) {
	bh, err := t.rpc.GetLatestBlockhash(ctx, t.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		bh.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if err := signer.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := t.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: t.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	t.logger.Debug("transaction sent", "signature", sig, "last_valid_block_height", bh.Value.LastValidBlockHeight)

	if err := t.awaitConfirmation(ctx, sig, bh.Value.LastValidBlockHeight); err != nil {
		return sig, err
	}
	t.logger.Info("transaction confirmed", "signature", sig)
	return sig, nil
}

// awaitConfirmation polls the signature status until it reaches the
// transport's commitment, fails, or the blockhash expires.
func (t *RPCTransport) awaitConfirmation(ctx context.Context, sig solana.Signature, lastValid uint64) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		done, err := t.checkStatus(ctx, sig, lastValid)
		if done || err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *RPCTransport) checkStatus(ctx context.Context, sig solana.Signature, lastValid uint64) (bool, error) {
	out, err := t.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		// Transient; the next tick retries until the timeout.
		t.logger.Warn("signature status failed", "signature", sig, "err", err)
		return false, nil
	}
	if len(out.Value) > 0 && out.Value[0] != nil {
		st := out.Value[0]
		if st.Err != nil {
			return true, fmt.Errorf("transaction %s failed: %v", sig, st.Err)
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return true, nil
		}
		return false, nil
	}

	height, err := t.rpc.GetBlockHeight(ctx, t.commitment)
	if err == nil && height > lastValid {
		return true, fmt.Errorf("%w: %s", ErrBlockhashExpired, sig)
	}
	return false, nil
}

// ReadAccount returns the data of the account at addr, or
// counter.ErrAccountNotFound if there is none. Lamports sent to an
// unallocated address leave a system-owned account with no data; that is
// reported as not found too, since a program account can be created there.
func (t *RPCTransport) ReadAccount(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	out, err := t.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: t.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, counter.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, counter.ErrAccountNotFound
	}
	data := out.Value.Data.GetBinary()
	if len(data) == 0 && out.Value.Owner.Equals(solana.SystemProgramID) {
		return nil, counter.ErrAccountNotFound
	}
	return data, nil
}
