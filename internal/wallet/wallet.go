// Package wallet provides the signing side of the client: Solana CLI
// keypair files, and read-only identities that have no signer attached.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/gagliardetto/solana-go"
)

// ErrNoAccounts is returned when neither a keypair nor an owner is configured.
var ErrNoAccounts = errors.New("no wallet configured")

// KeypairSigner signs with a private key held in memory.
type KeypairSigner struct {
	key  solana.PrivateKey
	pub  solana.PublicKey
	path string
}

// NewKeypairSigner wraps key.
func NewKeypairSigner(key solana.PrivateKey) *KeypairSigner {
	return &KeypairSigner{key: key, pub: key.PublicKey()}
}

// LoadKeypair reads a keypair file in the Solana CLI JSON format.
func LoadKeypair(path string) (*KeypairSigner, error) {
	expanded := ExpandHome(path)
	key, err := solana.PrivateKeyFromSolanaKeygenFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	s := NewKeypairSigner(key)
	s.path = expanded
	return s, nil
}

func (s *KeypairSigner) PublicKey() solana.PublicKey { return s.pub }

// Path returns the file the key was loaded from, if any.
func (s *KeypairSigner) Path() string { return s.path }

// SignTransaction adds the signer's signature to tx.
func (s *KeypairSigner) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.pub) {
			return &s.key
		}
		return nil
	})
	return err
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Account is a connected wallet identity. Signer is nil for read-only
// identities.
type Account struct {
	Identity solana.PublicKey
	Signer   counter.Signer
	Label    string
}

// SignerReady reports whether the account can authorize transactions.
func (a Account) SignerReady() bool { return a.Signer != nil }

// Source lists the accounts a user can switch between: every configured
// keypair, then the read-only owner if one is set.
type Source struct {
	Keypairs []string
	Owner    *solana.PublicKey
}

// NewSource builds a Source from configuration values.
func NewSource(keypairs []string, owner string) (Source, error) {
	src := Source{Keypairs: keypairs}
	if owner != "" {
		pk, err := solana.PublicKeyFromBase58(owner)
		if err != nil {
			return Source{}, fmt.Errorf("owner %q: %w", owner, err)
		}
		src.Owner = &pk
	}
	return src, nil
}

// Len returns the number of selectable accounts.
func (s Source) Len() int {
	n := len(s.Keypairs)
	if s.Owner != nil {
		n++
	}
	return n
}

// Open connects account i. Keypair files are read on every call so a
// replaced file takes effect on reconnect.
func (s Source) Open(i int) (Account, error) {
	if s.Len() == 0 {
		return Account{}, ErrNoAccounts
	}
	if i < 0 || i >= s.Len() {
		return Account{}, fmt.Errorf("account index %d out of range", i)
	}
	if i < len(s.Keypairs) {
		signer, err := LoadKeypair(s.Keypairs[i])
		if err != nil {
			return Account{}, err
		}
		return Account{
			Identity: signer.PublicKey(),
			Signer:   signer,
			Label:    filepath.Base(signer.Path()),
		}, nil
	}
	return Account{Identity: *s.Owner, Label: "read-only"}, nil
}
