package bank

import (
	"crypto/ed25519"
	"fmt"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/runtime"
	"github.com/code-payments/vault-program/pkg/solana/system"
)

// systemProgram is the native program behind system.ProgramKey. It supports
// the CreateAccount and Transfer instructions.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/programs/system/src/system_processor.rs
type systemProgram struct{}

// Process implements runtime.Program.Process
func (p *systemProgram) Process(host runtime.Host, programID ed25519.PublicKey, accounts []*runtime.Account, data []byte) error {
	instruction := solana.Instruction{
		Program: programID,
		Data:    data,
	}
	for _, account := range accounts {
		instruction.Accounts = append(instruction.Accounts, solana.AccountMeta{
			PublicKey:  account.Key(),
			IsSigner:   account.IsSigner(),
			IsWritable: account.IsWritable(),
		})
	}

	switch {
	case system.IsCreateAccount(instruction):
		decompiled, err := system.DecompileCreateAccount(instruction)
		if err != nil {
			return toProgramError(err, len(accounts))
		}
		return p.createAccount(host, accounts[0], accounts[1], decompiled)
	case system.IsTransfer(instruction):
		decompiled, err := system.DecompileTransfer(instruction)
		if err != nil {
			return toProgramError(err, len(accounts))
		}
		return p.transfer(host, accounts[0], accounts[1], decompiled.Lamports)
	default:
		return runtime.ErrInvalidInstructionData
	}
}

func (p *systemProgram) createAccount(host runtime.Host, funder, to *runtime.Account, args *system.DecompiledCreateAccount) error {
	if !to.IsSigner() {
		host.Log(fmt.Sprintf("Create Account: account %s must sign", solana.KeyString(to.Key())))
		return runtime.ErrMissingRequiredSignature
	}

	if to.Lamports() > 0 || to.DataLen() > 0 || !to.IsOwnedBy(system.ProgramKey[:]) {
		host.Log(fmt.Sprintf("Create Account: account %s already in use", solana.KeyString(to.Key())))
		return runtime.ErrAccountAlreadyInUse
	}

	if args.Size > maxPermittedDataLen {
		host.Log(fmt.Sprintf("Allocate: requested %d, max allowed %d", args.Size, maxPermittedDataLen))
		return runtime.ErrInvalidArgument
	}

	if err := to.SetDataLen(args.Size); err != nil {
		return err
	}
	if err := to.SetOwner(args.Owner); err != nil {
		return err
	}

	return p.transfer(host, funder, to, args.Lamports)
}

func (p *systemProgram) transfer(host runtime.Host, from, to *runtime.Account, lamports uint64) error {
	if !from.IsSigner() {
		host.Log(fmt.Sprintf("Transfer: `from` account %s must sign", solana.KeyString(from.Key())))
		return runtime.ErrMissingRequiredSignature
	}

	if from.DataLen() > 0 {
		host.Log("Transfer: `from` must not carry data")
		return runtime.ErrInvalidArgument
	}

	if lamports > from.Lamports() {
		host.Log(fmt.Sprintf("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports))
		return runtime.ErrInsufficientFunds
	}

	if err := from.SetLamports(from.Lamports() - lamports); err != nil {
		return err
	}

	credited, carry := bits.Add64(to.Lamports(), lamports, 0)
	if carry != 0 {
		return runtime.ErrArithmeticOverflow
	}
	return to.SetLamports(credited)
}

func toProgramError(err error, accountCount int) error {
	if accountCount < 2 {
		return errors.Wrap(runtime.ErrNotEnoughAccountKeys, err.Error())
	}
	return errors.Wrap(runtime.ErrInvalidInstructionData, err.Error())
}
