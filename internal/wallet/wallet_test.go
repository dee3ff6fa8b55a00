package wallet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func writeKeypair(t *testing.T, dir, name string) (string, solana.PrivateKey) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path, key
}

func TestLoadKeypair(t *testing.T) {
	path, key := writeKeypair(t, t.TempDir(), "id.json")

	s, err := LoadKeypair(path)
	if err != nil {
		t.Fatalf("LoadKeypair() error: %v", err)
	}
	if s.PublicKey() != key.PublicKey() {
		t.Errorf("PublicKey() = %s, want %s", s.PublicKey(), key.PublicKey())
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestLoadKeypairMissing(t *testing.T) {
	if _, err := LoadKeypair(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadKeypair() of missing file succeeded")
	}
}

func TestSignTransaction(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	s := NewKeypairSigner(key)

	ix := solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(s.PublicKey(), true, true)},
		[]byte{1},
	)
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(s.PublicKey()))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SignTransaction(context.Background(), tx); err != nil {
		t.Fatalf("SignTransaction() error: %v", err)
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("got %d signatures, want 1", len(tx.Signatures))
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !tx.Signatures[0].Verify(s.PublicKey(), msg) {
		t.Error("signature does not verify")
	}
}

func TestSignTransactionCancelled(t *testing.T) {
	key, _ := solana.NewRandomPrivateKey()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewKeypairSigner(key).SignTransaction(ctx, &solana.Transaction{}); err == nil {
		t.Error("SignTransaction() ignored a cancelled context")
	}
}

func TestSourceOpen(t *testing.T) {
	dir := t.TempDir()
	pathA, keyA := writeKeypair(t, dir, "a.json")
	pathB, keyB := writeKeypair(t, dir, "b.json")
	owner := solana.NewWallet().PublicKey()

	src, err := NewSource([]string{pathA, pathB}, owner.String())
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", src.Len())
	}

	tests := []struct {
		idx   int
		want  solana.PublicKey
		ready bool
		label string
	}{
		{0, keyA.PublicKey(), true, "a.json"},
		{1, keyB.PublicKey(), true, "b.json"},
		{2, owner, false, "read-only"},
	}
	for _, tt := range tests {
		acct, err := src.Open(tt.idx)
		if err != nil {
			t.Fatalf("Open(%d) error: %v", tt.idx, err)
		}
		if acct.Identity != tt.want {
			t.Errorf("Open(%d).Identity = %s, want %s", tt.idx, acct.Identity, tt.want)
		}
		if acct.SignerReady() != tt.ready {
			t.Errorf("Open(%d).SignerReady() = %v, want %v", tt.idx, acct.SignerReady(), tt.ready)
		}
		if acct.Label != tt.label {
			t.Errorf("Open(%d).Label = %q, want %q", tt.idx, acct.Label, tt.label)
		}
	}

	if _, err := src.Open(3); err == nil {
		t.Error("Open(3) succeeded")
	}
}

func TestSourceEmpty(t *testing.T) {
	src, err := NewSource(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Open(0); err != ErrNoAccounts {
		t.Errorf("Open(0) error = %v, want ErrNoAccounts", err)
	}
	if _, err := NewSource(nil, "bogus"); err == nil {
		t.Error("NewSource accepted a malformed owner")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/.config/solana/id.json"); got != filepath.Join(home, ".config", "solana", "id.json") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/abs/id.json"); got != "/abs/id.json" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}
