package counter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

//go:embed idl/counter_program.json
var counterIDL []byte

// IDL is the subset of an Anchor interface description the client needs:
// instruction discriminators with their account lists, and account
// discriminators.
type IDL struct {
	Address      string           `json:"address"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccountType `json:"accounts"`
}

type IDLInstruction struct {
	Name          string       `json:"name"`
	Discriminator ByteArray    `json:"discriminator"`
	Accounts      []IDLAccount `json:"accounts"`
}

type IDLAccount struct {
	Name     string  `json:"name"`
	Writable bool    `json:"writable"`
	Signer   bool    `json:"signer"`
	Address  string  `json:"address"`
	PDA      *IDLPDA `json:"pda"`
}

type IDLPDA struct {
	Seeds []IDLSeed `json:"seeds"`
}

type IDLSeed struct {
	Kind  string    `json:"kind"`
	Value ByteArray `json:"value"`
	Path  string    `json:"path"`
}

type IDLAccountType struct {
	Name          string    `json:"name"`
	Discriminator ByteArray `json:"discriminator"`
}

// counterAccountName is the IDL name of the counter account type.
const counterAccountName = "Counter"

// LoadIDL returns the IDL embedded in the binary.
func LoadIDL() (*IDL, error) {
	return ParseIDL(counterIDL)
}

// ParseIDL decodes and validates an IDL document.
func ParseIDL(data []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, fmt.Errorf("parse idl: %w", err)
	}
	if err := idl.validate(); err != nil {
		return nil, err
	}
	return &idl, nil
}

// ByteArray decodes a JSON array of numbers, the IDL's encoding for
// discriminators and constant seeds.
type ByteArray []byte

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// validate checks that every operation is described and that every PDA the
// IDL declares uses the same seeds as DeriveAddress.
func (idl *IDL) validate() error {
	for _, op := range Operations {
		ix, err := idl.Instruction(op)
		if err != nil {
			return err
		}
		if len(ix.Discriminator) != 8 {
			return fmt.Errorf("instruction %s: discriminator has %d bytes, want 8", ix.Name, len(ix.Discriminator))
		}
		for _, acc := range ix.Accounts {
			if acc.PDA == nil {
				continue
			}
			seeds := acc.PDA.Seeds
			if len(seeds) != 2 ||
				seeds[0].Kind != "const" || !bytes.Equal(seeds[0].Value, []byte(SeedLabel)) ||
				seeds[1].Kind != "account" || !ix.isSigner(seeds[1].Path) {
				return fmt.Errorf("instruction %s: account %s: unsupported pda seeds", ix.Name, acc.Name)
			}
		}
	}
	disc, err := idl.AccountDiscriminator(counterAccountName)
	if err != nil {
		return err
	}
	if len(disc) != 8 {
		return fmt.Errorf("account %s: discriminator has %d bytes, want 8", counterAccountName, len(disc))
	}
	return nil
}

// ProgramID returns the program address recorded in the IDL.
func (idl *IDL) ProgramID() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(idl.Address)
}

// Instruction returns the IDL entry for op.
func (idl *IDL) Instruction(op Operation) (*IDLInstruction, error) {
	for i := range idl.Instructions {
		if idl.Instructions[i].Name == string(op) {
			return &idl.Instructions[i], nil
		}
	}
	return nil, fmt.Errorf("idl has no instruction %q", op)
}

// AccountDiscriminator returns the 8-byte prefix of the named account type.
func (idl *IDL) AccountDiscriminator(name string) ([]byte, error) {
	for _, acc := range idl.Accounts {
		if acc.Name == name {
			return acc.Discriminator, nil
		}
	}
	return nil, fmt.Errorf("idl has no account type %q", name)
}

func (ix *IDLInstruction) isSigner(name string) bool {
	for _, acc := range ix.Accounts {
		if acc.Name == name {
			return acc.Signer
		}
	}
	return false
}

// accountMetas resolves the instruction's accounts for the given signer.
// Signer accounts resolve to the signer, PDA accounts to counterAddr.
func (ix *IDLInstruction) accountMetas(signer, counterAddr solana.PublicKey) (solana.AccountMetaSlice, error) {
	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		var key solana.PublicKey
		switch {
		case acc.Address != "":
			k, err := solana.PublicKeyFromBase58(acc.Address)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", acc.Name, err)
			}
			key = k
		case acc.Signer:
			key = signer
		case acc.PDA != nil:
			key = counterAddr
		default:
			return nil, fmt.Errorf("account %s: cannot resolve", acc.Name)
		}
		metas = append(metas, solana.NewAccountMeta(key, acc.Writable, acc.Signer))
	}
	return metas, nil
}
