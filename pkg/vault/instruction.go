package vault

import (
	"fmt"

	"github.com/pkg/errors"

	solbinary "github.com/code-payments/vault-program/pkg/solana/binary"
)

type InstructionType uint8

const (
	InstructionTypeInitializeAccount InstructionType = iota
	InstructionTypeDeposit
	InstructionTypeWithdrawTenPercent
)

const (
	DepositInstructionArgsSize = 8 // amount
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitializeAccount:
		return "InitializeAccount"
	case InstructionTypeDeposit:
		return "Deposit"
	case InstructionTypeWithdrawTenPercent:
		return "WithdrawTenPercent"
	}
	return fmt.Sprintf("InstructionType(%d)", uint8(t))
}

// Instruction is one of InitializeAccount, Deposit or WithdrawTenPercent. The
// set is closed: only this package can add variants.
type Instruction interface {
	Type() InstructionType

	// Marshal returns the canonical wire encoding of the instruction.
	Marshal() []byte

	String() string

	isInstruction()
}

// InitializeAccount creates a rent-exempt, zero-data account owned by the
// program, funded by the payer.
type InitializeAccount struct{}

// Deposit moves Amount lamports from the payer to the target account.
type Deposit struct {
	Amount uint64
}

// WithdrawTenPercent moves a tenth of the source balance, rounded down, to the
// destination account.
type WithdrawTenPercent struct{}

func (InitializeAccount) Type() InstructionType  { return InstructionTypeInitializeAccount }
func (Deposit) Type() InstructionType            { return InstructionTypeDeposit }
func (WithdrawTenPercent) Type() InstructionType { return InstructionTypeWithdrawTenPercent }

func (InitializeAccount) isInstruction()  {}
func (Deposit) isInstruction()            {}
func (WithdrawTenPercent) isInstruction() {}

func (i InitializeAccount) Marshal() []byte {
	return []byte{uint8(i.Type())}
}

func (i Deposit) Marshal() []byte {
	var offset int
	data := make([]byte, 1+DepositInstructionArgsSize)
	solbinary.PutUint8(data[offset:], uint8(i.Type()), &offset)
	solbinary.PutUint64(data[offset:], i.Amount, &offset)
	return data
}

func (i WithdrawTenPercent) Marshal() []byte {
	return []byte{uint8(i.Type())}
}

func (i InitializeAccount) String() string {
	return i.Type().String()
}

func (i Deposit) String() string {
	return fmt.Sprintf("%s{amount: %d}", i.Type(), i.Amount)
}

func (i WithdrawTenPercent) String() string {
	return i.Type().String()
}

// DecodeInstruction parses instruction data. The first byte selects the
// variant. Deposit requires exactly 8 more bytes holding a little-endian
// amount; the other variants carry no payload and ignore any trailing bytes.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMalformedInstruction, "empty instruction data")
	}

	var offset int
	var tag uint8
	solbinary.GetUint8(data, &tag, &offset)

	switch InstructionType(tag) {
	case InstructionTypeInitializeAccount:
		return InitializeAccount{}, nil
	case InstructionTypeDeposit:
		payload := data[offset:]
		if len(payload) != DepositInstructionArgsSize {
			return nil, errors.Wrapf(ErrMalformedInstruction, "invalid deposit payload size: %d", len(payload))
		}

		var args Deposit
		solbinary.GetUint64(payload, &args.Amount, &offset)
		return args, nil
	case InstructionTypeWithdrawTenPercent:
		return WithdrawTenPercent{}, nil
	default:
		return nil, errors.Wrapf(ErrMalformedInstruction, "unknown instruction tag: %d", tag)
	}
}
