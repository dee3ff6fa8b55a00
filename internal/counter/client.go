package counter

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var embeddedIDL = mustLoadIDL()

func mustLoadIDL() *IDL {
	idl, err := LoadIDL()
	if err != nil {
		panic(err)
	}
	return idl
}

// Client submits counter instructions for one signer and reads that
// signer's counter account. It holds no state beyond its bindings.
type Client struct {
	transport Transport
	signer    Signer
	programID solana.PublicKey
	address   solana.PublicKey
	idl       *IDL
}

// Option customizes a Client.
type Option func(*Client)

// WithIDL replaces the embedded IDL.
func WithIDL(idl *IDL) Option {
	return func(c *Client) { c.idl = idl }
}

// NewClient binds transport and signer to the program at programID.
func NewClient(transport Transport, signer Signer, programID solana.PublicKey, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		signer:    signer,
		programID: programID,
		idl:       embeddedIDL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.address, _ = DeriveAddress(signer.PublicKey(), programID)
	return c
}

// ProgramID returns the program the client targets.
func (c *Client) ProgramID() solana.PublicKey { return c.programID }

// Owner returns the signer's public key.
func (c *Client) Owner() solana.PublicKey { return c.signer.PublicKey() }

// Address returns the signer's counter account address.
func (c *Client) Address() solana.PublicKey { return c.address }

// Instruction builds the instruction for op.
func (c *Client) Instruction(op Operation) (solana.Instruction, error) {
	ix, err := c.idl.Instruction(op)
	if err != nil {
		return nil, err
	}
	metas, err := ix.accountMetas(c.signer.PublicKey(), c.address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data := make([]byte, len(ix.Discriminator))
	copy(data, ix.Discriminator)
	return solana.NewInstruction(c.programID, metas, data), nil
}

// Execute submits op and waits for confirmation. Failures are returned as
// *SubmissionError.
func (c *Client) Execute(ctx context.Context, op Operation) (solana.Signature, error) {
	ix, err := c.Instruction(op)
	if err != nil {
		return solana.Signature{}, &SubmissionError{Op: op, Err: err}
	}
	sig, err := c.transport.Submit(ctx, ix, c.signer)
	if err != nil {
		return solana.Signature{}, &SubmissionError{Op: op, Err: err}
	}
	return sig, nil
}

// Fetch reads the signer's counter account.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	disc, err := c.idl.AccountDiscriminator(counterAccountName)
	if err != nil {
		return Snapshot{}, &ReadError{Address: c.address, Err: err}
	}
	return Fetch(ctx, c.transport, c.address, disc)
}

// CounterDiscriminator returns the account discriminator of the embedded IDL.
func CounterDiscriminator() []byte {
	disc, _ := embeddedIDL.AccountDiscriminator(counterAccountName)
	return disc
}
