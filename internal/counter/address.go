package counter

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SeedLabel is the constant seed the program uses for counter accounts.
const SeedLabel = "counter"

// DeriveAddress returns the counter account address owned by owner under
// programID, with its bump. Seed order is label first, owner second; any other
// order yields an address the program never creates.
func DeriveAddress(owner, programID solana.PublicKey) (solana.PublicKey, uint8) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(SeedLabel), owner.Bytes()},
		programID,
	)
	if err != nil {
		// Only reachable if all 256 bumps land on the curve.
		panic(fmt.Sprintf("counter: derive address for %s: %v", owner, err))
	}
	return addr, bump
}
