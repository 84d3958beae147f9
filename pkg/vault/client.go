package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/system"
)

type InitializeAccountInstructionAccounts struct {
	Payer      ed25519.PublicKey
	NewAccount ed25519.PublicKey
}

func NewInitializeAccountInstruction(
	program ed25519.PublicKey,
	accounts *InitializeAccountInstructionAccounts,
) solana.Instruction {
	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: InitializeAccount{}.Marshal(),

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.NewAccount,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  system.ProgramKey[:],
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type DepositInstructionAccounts struct {
	Payer  ed25519.PublicKey
	Target ed25519.PublicKey
}

type DepositInstructionArgs struct {
	Amount uint64
}

func NewDepositInstruction(
	program ed25519.PublicKey,
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: Deposit{Amount: args.Amount}.Marshal(),

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Target,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  system.ProgramKey[:],
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type WithdrawTenPercentInstructionAccounts struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
}

// NewWithdrawTenPercentInstruction builds a withdrawal. The source must sign
// and be owned by the system program for the host to allow the debit.
func NewWithdrawTenPercentInstruction(
	program ed25519.PublicKey,
	accounts *WithdrawTenPercentInstructionAccounts,
) solana.Instruction {
	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: WithdrawTenPercent{}.Marshal(),

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Source,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Destination,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  system.ProgramKey[:],
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
