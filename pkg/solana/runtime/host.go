package runtime

//go:generate mockgen -source host.go -destination host_mock.go -package runtime

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/rent"
)

// Host is the execution environment a program runs in. The host owns account
// storage, enforces signatures and ownership, and commits or discards the
// effects of an instruction atomically.
type Host interface {
	// Rent returns the current rent sysvar.
	Rent() rent.Rent

	// Invoke executes instruction against another program. Every account the
	// instruction references, plus the target program's account, must be in
	// accounts. Either all of the instruction's effects apply or none do.
	Invoke(instruction solana.Instruction, accounts []*Account) error

	// Log appends a line to the program log of the current transaction.
	Log(message string)
}

// Program is an on-chain program the host can dispatch instructions to.
type Program interface {
	Process(host Host, programID ed25519.PublicKey, accounts []*Account, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(host Host, programID ed25519.PublicKey, accounts []*Account, data []byte) error

// Process implements Program.Process
func (f ProgramFunc) Process(host Host, programID ed25519.PublicKey, accounts []*Account, data []byte) error {
	return f(host, programID, accounts, data)
}
