package vault

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/solana/runtime"
	"github.com/code-payments/vault-program/pkg/solana/system"
)

// Every instruction takes the same three account slots: the account paying
// or being debited, the counterparty, and the system program.
const instructionArity = 3

// Program is the vault program as a runtime.Program.
type Program struct{}

// NewProgram returns the vault program for registration with a host.
func NewProgram() runtime.Program {
	return Program{}
}

// Process implements runtime.Program.Process
func (Program) Process(host runtime.Host, programID ed25519.PublicKey, accounts []*runtime.Account, data []byte) error {
	return Process(host, programID, accounts, data)
}

// Process decodes data and executes the resulting instruction against
// accounts. All validation happens before the first request to the host, so a
// locally detected failure never leaves an account modified.
func Process(host runtime.Host, programID ed25519.PublicKey, accounts []*runtime.Account, data []byte) error {
	instruction, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	return Execute(host, programID, instruction, accounts)
}

// Execute runs an already decoded instruction.
func Execute(host runtime.Host, programID ed25519.PublicKey, instruction Instruction, accounts []*runtime.Account) error {
	if len(accounts) != instructionArity {
		return errors.Wrapf(ErrMissingAccount, "%s expects %d accounts, got %d", instruction.Type(), instructionArity, len(accounts))
	}

	switch typed := instruction.(type) {
	case InitializeAccount:
		return processInitializeAccount(host, programID, accounts)
	case Deposit:
		return processDeposit(host, typed, accounts)
	case WithdrawTenPercent:
		return processWithdrawTenPercent(host, accounts)
	default:
		return errors.Wrapf(ErrMalformedInstruction, "unhandled instruction %s", instruction.Type())
	}
}

// Accounts: [payer, new account, system program]
func processInitializeAccount(host runtime.Host, programID ed25519.PublicKey, accounts []*runtime.Account) error {
	payer, newAccount := accounts[0], accounts[1]

	// The account only ever holds lamports, so no data is allocated
	lamports := host.Rent().MinimumBalance(0)

	host.Log("Instruction: InitializeAccount")

	err := host.Invoke(
		system.CreateAccount(payer.Key(), newAccount.Key(), programID, lamports, 0),
		accounts,
	)
	if err != nil {
		return transferRejected(err)
	}
	return nil
}

// Accounts: [payer, target, system program]
func processDeposit(host runtime.Host, args Deposit, accounts []*runtime.Account) error {
	if args.Amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "deposit amount must be non-zero")
	}

	payer, target := accounts[0], accounts[1]

	host.Log("Instruction: Deposit")

	return transfer(host, payer, target, args.Amount, accounts)
}

// Accounts: [source, destination, system program]
func processWithdrawTenPercent(host runtime.Host, accounts []*runtime.Account) error {
	source, destination := accounts[0], accounts[1]

	amount := source.Lamports() / 10
	if amount == 0 {
		return errors.Wrapf(ErrInsufficientFunds, "balance of %d is too small to withdraw from", source.Lamports())
	}

	host.Log("Instruction: WithdrawTenPercent")

	return transfer(host, source, destination, amount, accounts)
}

func transfer(host runtime.Host, from, to *runtime.Account, lamports uint64, accounts []*runtime.Account) error {
	err := host.Invoke(system.Transfer(from.Key(), to.Key(), lamports), accounts)
	if errors.Is(err, runtime.ErrInsufficientFunds) {
		return insufficientFunds(err)
	} else if err != nil {
		return transferRejected(err)
	}
	return nil
}
