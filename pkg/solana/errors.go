package solana

import (
	"fmt"

	"github.com/pkg/errors"
)

// InstructionErrorKey is the string key reported for an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError                InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument             InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData      InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData          InstructionErrorKey = "InvalidAccountData"
	InstructionErrorInsufficientFunds           InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID          InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature    InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized   InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount        InstructionErrorKey = "UninitializedAccount"
	InstructionErrorUnbalancedInstruction       InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorReadonlyDataModified        InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorExternalAccountLamportSpend InstructionErrorKey = "ExternalAccountLamportSpend"
	InstructionErrorReadonlyLamportChange       InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorNotEnoughAccountKeys        InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorUnsupportedProgramID        InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorMissingAccount              InstructionErrorKey = "MissingAccount"
	InstructionErrorArithmeticOverflow          InstructionErrorKey = "ArithmeticOverflow"
	InstructionErrorPrivilegeEscalation         InstructionErrorKey = "PrivilegeEscalation"
	InstructionErrorCallDepth                   InstructionErrorKey = "CallDepth"
	InstructionErrorModifiedProgramID           InstructionErrorKey = "ModifiedProgramId"
	InstructionErrorCustom                      InstructionErrorKey = "Custom"

	// Reported by the system program as a custom error, but surfaced by key
	// so callers don't need to know the system program's error table.
	InstructionErrorAccountAlreadyInUse InstructionErrorKey = "AccountAlreadyInUse"
)

// KeyedError is implemented by errors that know which InstructionErrorKey
// they should be reported as.
type KeyedError interface {
	error
	ErrorKey() InstructionErrorKey
}

// ProgramError is an error identified only by its InstructionErrorKey.
type ProgramError InstructionErrorKey

func (e ProgramError) Error() string {
	return string(e)
}

func (e ProgramError) ErrorKey() InstructionErrorKey {
	return InstructionErrorKey(e)
}

// ErrorKeyOf returns the key an arbitrary error should be reported as. Errors
// that carry no key are reported as GenericError.
func ErrorKeyOf(err error) InstructionErrorKey {
	if err == nil {
		return ""
	}

	var custom CustomError
	if errors.As(err, &custom) {
		return InstructionErrorCustom
	}

	var keyed KeyedError
	if errors.As(err, &keyed) {
		return keyed.ErrorKey()
	}

	return InstructionErrorGenericError
}

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

// NewInstructionError wraps err as the failure of the instruction at index.
func NewInstructionError(index int, err error) *InstructionError {
	return &InstructionError{
		Index: index,
		Err:   err,
	}
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (i InstructionError) Unwrap() error {
	return i.Err
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	return ErrorKeyOf(i.Err)
}

func (i InstructionError) JSONString() string {
	if ce := i.CustomError(); ce != nil {
		return fmt.Sprintf(`[%d, {"%s": %d}]`, i.Index, InstructionErrorCustom, *ce)
	}

	return fmt.Sprintf(`[%d, "%s"]`, i.Index, i.ErrorKey())
}

func (i InstructionError) CustomError() *CustomError {
	var ce CustomError
	if errors.As(i.Err, &ce) {
		return &ce
	}

	return nil
}
