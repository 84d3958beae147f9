package vault

import (
	"github.com/code-payments/vault-program/pkg/solana"
)

// Failure is a typed reason the program rejected an instruction. Every
// failure is terminal for the instruction and leaves account state untouched.
type Failure struct {
	name string
	key  solana.InstructionErrorKey
}

func (f *Failure) Error() string {
	return f.name
}

// ErrorKey is the key the host reports the failure under.
func (f *Failure) ErrorKey() solana.InstructionErrorKey {
	return f.key
}

var (
	// ErrMalformedInstruction is returned for empty data, an unknown tag, or a
	// payload of the wrong size.
	ErrMalformedInstruction = &Failure{"malformed instruction", solana.InstructionErrorInvalidInstructionData}

	// ErrInvalidAmount is returned when a caller supplied amount is rejected,
	// such as a zero deposit.
	ErrInvalidAmount = &Failure{"invalid amount", solana.InstructionErrorInvalidInstructionData}

	// ErrInsufficientFunds is returned when a computed withdrawal is zero, or
	// the host rejects a transfer for lack of funds.
	ErrInsufficientFunds = &Failure{"insufficient funds", solana.InstructionErrorInsufficientFunds}

	// ErrTransferRejected is matched by any HostError raised while the host
	// created an account or moved lamports on the program's behalf.
	ErrTransferRejected = &Failure{"transfer rejected", solana.InstructionErrorGenericError}

	// ErrMissingAccount is returned when the account list doesn't match the
	// instruction's arity.
	ErrMissingAccount = &Failure{"missing account", solana.InstructionErrorNotEnoughAccountKeys}
)

var (
	_ solana.KeyedError = (*Failure)(nil)
	_ solana.KeyedError = (*HostError)(nil)
)

// HostError is a failure surfaced by the host while serving a request from
// the program. It matches Kind with errors.Is and unwraps to the host's
// original cause, which is never reinterpreted.
type HostError struct {
	Kind  *Failure
	Cause error
}

func (e *HostError) Error() string {
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *HostError) Unwrap() error {
	return e.Cause
}

func (e *HostError) Is(target error) bool {
	return target == e.Kind
}

// ErrorKey reports rejected transfers under the host's own key when it has
// one.
func (e *HostError) ErrorKey() solana.InstructionErrorKey {
	if e.Kind == ErrTransferRejected {
		return solana.ErrorKeyOf(e.Cause)
	}
	return e.Kind.ErrorKey()
}

// ErrorKey maps an error returned by Process onto the host's error channel.
func ErrorKey(err error) solana.InstructionErrorKey {
	return solana.ErrorKeyOf(err)
}

func transferRejected(cause error) error {
	return &HostError{Kind: ErrTransferRejected, Cause: cause}
}

func insufficientFunds(cause error) error {
	return &HostError{Kind: ErrInsufficientFunds, Cause: cause}
}
