package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/solana"
	solbinary "github.com/code-payments/vault-program/pkg/solana/binary"
)

var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
)

const (
	createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize
	transferDataSize      = 4 + 8
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data := make([]byte, createAccountDataSize)

	var offset int
	solbinary.PutUint32(data[offset:], commandCreateAccount, &offset)
	solbinary.PutUint64(data[offset:], lamports, &offset)
	solbinary.PutUint64(data[offset:], size, &offset)
	solbinary.PutKey32(data[offset:], owner, &offset)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(i solana.Instruction) (*DecompiledCreateAccount, error) {
	if err := checkCommand(i, commandCreateAccount); err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  i.Accounts[0].PublicKey,
		Address: i.Accounts[1].PublicKey,
	}

	offset := 4
	solbinary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	solbinary.GetUint64(i.Data[offset:], &v.Size, &offset)
	solbinary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L84-L89
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, transferDataSize)

	var offset int
	solbinary.PutUint32(data[offset:], commandTransfer, &offset)
	solbinary.PutUint64(data[offset:], lamports, &offset)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkCommand(i, commandTransfer); err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != transferDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		From:     i.Accounts[0].PublicKey,
		To:       i.Accounts[1].PublicKey,
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}

// IsCreateAccount reports whether i is a system CreateAccount instruction.
func IsCreateAccount(i solana.Instruction) bool {
	return checkCommand(i, commandCreateAccount) == nil
}

// IsTransfer reports whether i is a system Transfer instruction.
func IsTransfer(i solana.Instruction) bool {
	return checkCommand(i, commandTransfer) == nil
}

func checkCommand(i solana.Instruction, command uint32) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], command)

	if !i.IsProgram(ProgramKey[:]) {
		return solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
