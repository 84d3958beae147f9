package runtime

import (
	"github.com/code-payments/vault-program/pkg/solana"
)

var (
	ErrInsufficientFunds        = solana.ProgramError(solana.InstructionErrorInsufficientFunds)
	ErrAccountAlreadyInUse      = solana.ProgramError(solana.InstructionErrorAccountAlreadyInUse)
	ErrMissingRequiredSignature = solana.ProgramError(solana.InstructionErrorMissingRequiredSignature)
	ErrReadonlyLamportChange    = solana.ProgramError(solana.InstructionErrorReadonlyLamportChange)
	ErrReadonlyDataModified     = solana.ProgramError(solana.InstructionErrorReadonlyDataModified)
	ErrExternalLamportSpend     = solana.ProgramError(solana.InstructionErrorExternalAccountLamportSpend)
	ErrUnsupportedProgram       = solana.ProgramError(solana.InstructionErrorUnsupportedProgramID)
	ErrNotEnoughAccountKeys     = solana.ProgramError(solana.InstructionErrorNotEnoughAccountKeys)
	ErrInvalidInstructionData   = solana.ProgramError(solana.InstructionErrorInvalidInstructionData)
	ErrMissingAccount           = solana.ProgramError(solana.InstructionErrorMissingAccount)
	ErrArithmeticOverflow       = solana.ProgramError(solana.InstructionErrorArithmeticOverflow)
	ErrUnbalancedInstruction    = solana.ProgramError(solana.InstructionErrorUnbalancedInstruction)
	ErrPrivilegeEscalation      = solana.ProgramError(solana.InstructionErrorPrivilegeEscalation)
	ErrCallDepth                = solana.ProgramError(solana.InstructionErrorCallDepth)
	ErrModifiedProgramID        = solana.ProgramError(solana.InstructionErrorModifiedProgramID)
	ErrInvalidArgument          = solana.ProgramError(solana.InstructionErrorInvalidArgument)
)
