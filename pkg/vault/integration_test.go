package vault_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/bank"
	"github.com/code-payments/vault-program/pkg/solana/rent"
	"github.com/code-payments/vault-program/pkg/solana/system"
	"github.com/code-payments/vault-program/pkg/testutil"
	"github.com/code-payments/vault-program/pkg/vault"
)

type bankEnv struct {
	ctx       context.Context
	bank      *bank.Bank
	programID ed25519.PublicKey
	payer     ed25519.PublicKey
	vault     ed25519.PublicKey
	other     ed25519.PublicKey
}

// setupBank deploys the program and initializes a vault account funded by a
// payer holding payerLamports.
func setupBank(t *testing.T, payerLamports uint64) bankEnv {
	testutil.DisableLogging()

	keys := testutil.GenerateSolanaKeys(t, 4)
	env := bankEnv{
		ctx:       context.Background(),
		bank:      bank.New(bank.WithRent(rent.Default())),
		programID: keys[0],
		payer:     keys[1],
		vault:     keys[2],
		other:     keys[3],
	}

	require.NoError(t, env.bank.RegisterProgram(env.programID, vault.NewProgram()))
	require.NoError(t, env.bank.Airdrop(env.ctx, env.payer, payerLamports))

	return env
}

func (e bankEnv) initialize(t *testing.T) {
	_, err := e.bank.Execute(e.ctx, vault.NewInitializeAccountInstruction(
		e.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      e.payer,
			NewAccount: e.vault,
		},
	))
	require.NoError(t, err)
}

func (e bankEnv) deposit(amount uint64) solana.Instruction {
	return vault.NewDepositInstruction(
		e.programID,
		&vault.DepositInstructionAccounts{
			Payer:  e.payer,
			Target: e.vault,
		},
		&vault.DepositInstructionArgs{
			Amount: amount,
		},
	)
}

func (e bankEnv) withdraw(source, destination ed25519.PublicKey) solana.Instruction {
	return vault.NewWithdrawTenPercentInstruction(
		e.programID,
		&vault.WithdrawTenPercentInstructionAccounts{
			Source:      source,
			Destination: destination,
		},
	)
}

func (e bankEnv) balances() map[string]uint64 {
	balances := make(map[string]uint64)
	for _, key := range []ed25519.PublicKey{e.payer, e.vault, e.other} {
		balances[solana.KeyString(key)] = e.bank.GetBalance(key)
	}
	return balances
}

func requireErrorKey(t *testing.T, err error, key solana.InstructionErrorKey) {
	var instructionErr *solana.InstructionError
	require.True(t, errors.As(err, &instructionErr), "unexpected error type: %v", err)
	assert.Equal(t, key, instructionErr.ErrorKey())
}

func TestBank_InitializeAccount(t *testing.T) {
	env := setupBank(t, 10_000_000)

	receipt, err := env.bank.Execute(env.ctx, vault.NewInitializeAccountInstruction(
		env.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      env.payer,
			NewAccount: env.vault,
		},
	))
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: Instruction: InitializeAccount")

	state, err := env.bank.GetAccount(env.vault)
	require.NoError(t, err)
	assert.EqualValues(t, 890_880, state.Lamports)
	assert.EqualValues(t, env.programID, state.Owner)
	assert.Zero(t, state.DataLen)

	assert.EqualValues(t, 10_000_000-890_880, env.bank.GetBalance(env.payer))

	// Only the vault account was created
	_, err = env.bank.GetAccount(env.other)
	assert.Equal(t, bank.ErrAccountNotFound, err)
	assert.Equal(t, map[string]uint64{
		solana.KeyString(env.payer): 10_000_000 - 890_880,
		solana.KeyString(env.vault): 890_880,
		solana.KeyString(env.other): 0,
	}, env.balances())

	// The account is now in use
	_, err = env.bank.Execute(env.ctx, vault.NewInitializeAccountInstruction(
		env.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      env.payer,
			NewAccount: env.vault,
		},
	))
	requireErrorKey(t, err, solana.InstructionErrorAccountAlreadyInUse)
	assert.True(t, errors.Is(err, vault.ErrTransferRejected))
	assert.EqualValues(t, 10_000_000-890_880, env.bank.GetBalance(env.payer))
}

func TestBank_InitializeAccount_CustomRent(t *testing.T) {
	env := setupBank(t, 10_000_000)

	custom := bank.New(bank.WithRent(rent.Rent{LamportsPerByteYear: 10, ExemptionThreshold: 1.0}))
	require.NoError(t, custom.RegisterProgram(env.programID, vault.NewProgram()))
	require.NoError(t, custom.Airdrop(env.ctx, env.payer, 10_000))

	_, err := custom.Execute(env.ctx, vault.NewInitializeAccountInstruction(
		env.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      env.payer,
			NewAccount: env.vault,
		},
	))
	require.NoError(t, err)
	assert.EqualValues(t, 1280, custom.GetBalance(env.vault))
	assert.EqualValues(t, 10_000-1280, custom.GetBalance(env.payer))
}

func TestBank_InitializeAccount_InsufficientPayer(t *testing.T) {
	env := setupBank(t, 890_879)

	_, err := env.bank.Execute(env.ctx, vault.NewInitializeAccountInstruction(
		env.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      env.payer,
			NewAccount: env.vault,
		},
	))
	requireErrorKey(t, err, solana.InstructionErrorInsufficientFunds)
	assert.True(t, errors.Is(err, vault.ErrTransferRejected))
	assert.False(t, errors.Is(err, vault.ErrInsufficientFunds))

	_, err = env.bank.GetAccount(env.vault)
	assert.Equal(t, bank.ErrAccountNotFound, err)
	assert.EqualValues(t, 890_879, env.bank.GetBalance(env.payer))
}

func TestBank_Deposit(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	require.NoError(t, env.bank.Airdrop(env.ctx, env.other, 42))

	expected := env.balances()
	expected[solana.KeyString(env.payer)] -= 100
	expected[solana.KeyString(env.vault)] += 100

	receipt, err := env.bank.Execute(env.ctx, env.deposit(100))
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: Instruction: Deposit")
	assert.Equal(t, expected, env.balances())
	assert.EqualValues(t, 42, env.bank.GetBalance(env.other))
}

func TestBank_DepositFailures(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	before := env.balances()

	_, err := env.bank.Execute(env.ctx, env.deposit(0))
	requireErrorKey(t, err, solana.InstructionErrorInvalidInstructionData)
	assert.True(t, errors.Is(err, vault.ErrInvalidAmount))

	_, err = env.bank.Execute(env.ctx, env.deposit(1_000_000))
	requireErrorKey(t, err, solana.InstructionErrorInsufficientFunds)
	assert.True(t, errors.Is(err, vault.ErrInsufficientFunds))

	unsigned := env.deposit(1)
	unsigned.Accounts[0].IsSigner = false
	_, err = env.bank.Execute(env.ctx, unsigned)
	requireErrorKey(t, err, solana.InstructionErrorPrivilegeEscalation)
	assert.True(t, errors.Is(err, vault.ErrTransferRejected))

	assert.Equal(t, before, env.balances())
}

func TestBank_WithdrawTenPercent(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	require.NoError(t, env.bank.Airdrop(env.ctx, env.other, 95))

	expected := env.balances()
	expected[solana.KeyString(env.other)] = 86
	expected[solana.KeyString(env.vault)] += 9

	receipt, err := env.bank.Execute(env.ctx, env.withdraw(env.other, env.vault))
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: Instruction: WithdrawTenPercent")
	assert.Equal(t, expected, env.balances())
	assert.EqualValues(t, 1_000_000-890_880, env.bank.GetBalance(env.payer))
}

func TestBank_WithdrawTenPercent_Small(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	require.NoError(t, env.bank.Airdrop(env.ctx, env.other, 5))
	before := env.balances()

	receipt, err := env.bank.Execute(env.ctx, env.withdraw(env.other, env.vault))
	requireErrorKey(t, err, solana.InstructionErrorInsufficientFunds)
	assert.True(t, errors.Is(err, vault.ErrInsufficientFunds))
	assert.NotContains(t, receipt.Logs, "Program log: Instruction: WithdrawTenPercent")

	assert.Equal(t, before, env.balances())
}

func TestBank_WithdrawTenPercent_ProgramOwnedSource(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	before := env.balances()

	// The system program can't debit an account it doesn't own
	_, err := env.bank.Execute(env.ctx, env.withdraw(env.vault, env.payer))
	requireErrorKey(t, err, solana.InstructionErrorExternalAccountLamportSpend)
	assert.True(t, errors.Is(err, vault.ErrTransferRejected))

	assert.Equal(t, before, env.balances())
}

func TestBank_MalformedInstruction(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	before := env.balances()

	for _, data := range [][]byte{
		nil,
		{0x03},
		{0x01, 0x01},
	} {
		instruction := env.deposit(1)
		instruction.Data = data

		_, err := env.bank.Execute(env.ctx, instruction)
		requireErrorKey(t, err, solana.InstructionErrorInvalidInstructionData)
		assert.True(t, errors.Is(err, vault.ErrMalformedInstruction))
	}

	assert.Equal(t, before, env.balances())
}

func TestBank_MissingAccount(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	before := env.balances()

	instruction := env.deposit(100)
	instruction.Accounts = instruction.Accounts[:2]
	_, err := env.bank.Execute(env.ctx, instruction)
	requireErrorKey(t, err, solana.InstructionErrorNotEnoughAccountKeys)
	assert.True(t, errors.Is(err, vault.ErrMissingAccount))

	instruction = env.deposit(100)
	instruction.Accounts[2] = solana.NewReadonlyAccountMeta(env.other, false)
	_, err = env.bank.Execute(env.ctx, instruction)
	requireErrorKey(t, err, solana.InstructionErrorMissingAccount)
	assert.True(t, errors.Is(err, vault.ErrTransferRejected))

	assert.Equal(t, before, env.balances())
}

func TestBank_Atomic(t *testing.T) {
	env := setupBank(t, 1_000_000)
	env.initialize(t)

	require.NoError(t, env.bank.Airdrop(env.ctx, env.other, 5))
	before := env.balances()

	_, err := env.bank.Execute(
		env.ctx,
		env.deposit(100),
		env.withdraw(env.other, env.vault),
	)

	var instructionErr *solana.InstructionError
	require.True(t, errors.As(err, &instructionErr))
	assert.Equal(t, 1, instructionErr.Index)
	assert.Equal(t, solana.InstructionErrorInsufficientFunds, instructionErr.ErrorKey())

	assert.Equal(t, before, env.balances())
}

func TestBank_SystemProgramKey(t *testing.T) {
	env := setupBank(t, 1_000_000)

	state, err := env.bank.GetAccount(system.ProgramKey[:])
	require.NoError(t, err)
	assert.True(t, state.Executable)
}
