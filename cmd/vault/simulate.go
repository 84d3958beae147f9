package main

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/vault-program/pkg/metrics"
	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/bank"
	"github.com/code-payments/vault-program/pkg/vault"
)

var SimulateCmd = cli.Command{
	Action: doSimulate,
	Name:   "simulate",
	Usage:  "Run a payer through InitializeAccount, Deposit and WithdrawTenPercent against an in-memory bank",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "payer-lamports",
			Usage: "lamports airdropped to the payer",
			Value: 10_000_000,
		},
		&cli.Uint64Flag{
			Name:  "deposit",
			Usage: "lamports deposited into the vault account",
			Value: 1_000_000,
		},
		&cli.IntFlag{
			Name:  "withdrawals",
			Usage: "number of WithdrawTenPercent instructions moving funds from the payer to the vault account",
			Value: 3,
		},
	},
}

type simulation struct {
	log *logrus.Entry
	out io.Writer

	bank      *bank.Bank
	programID ed25519.PublicKey
	payer     ed25519.PublicKey
	vault     ed25519.PublicKey
}

func doSimulate(c *cli.Context) error {
	ctx, end := metrics.StartTransaction(c.Context, metricsProvider(c), "vault simulate")
	defer end()

	withdrawals := c.Int("withdrawals")
	if withdrawals < 0 {
		return errors.New("withdrawals must not be negative")
	}

	keys := make([]ed25519.PublicKey, 3)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			return errors.Wrap(err, "error generating key")
		}
		keys[i] = pub
	}

	s := &simulation{
		log:       logrus.StandardLogger().WithField("type", "cmd/vault/simulation"),
		out:       c.App.Writer,
		bank:      bank.New(bank.WithEnvConfigs()),
		programID: keys[0],
		payer:     keys[1],
		vault:     keys[2],
	}

	if err := s.bank.RegisterProgram(s.programID, vault.NewProgram()); err != nil {
		return errors.Wrap(err, "error registering program")
	}
	if err := s.bank.Airdrop(ctx, s.payer, c.Uint64("payer-lamports")); err != nil {
		return errors.Wrap(err, "error funding payer")
	}

	fmt.Fprintf(s.out, "program: %s\n", solana.KeyString(s.programID))
	fmt.Fprintf(s.out, "payer:   %s\n", solana.KeyString(s.payer))
	fmt.Fprintf(s.out, "vault:   %s\n", solana.KeyString(s.vault))
	s.printBalances("Airdrop")

	s.step(c, vault.NewInitializeAccountInstruction(
		s.programID,
		&vault.InitializeAccountInstructionAccounts{
			Payer:      s.payer,
			NewAccount: s.vault,
		},
	))

	s.step(c, vault.NewDepositInstruction(
		s.programID,
		&vault.DepositInstructionAccounts{
			Payer:  s.payer,
			Target: s.vault,
		},
		&vault.DepositInstructionArgs{
			Amount: c.Uint64("deposit"),
		},
	))

	for i := 0; i < withdrawals; i++ {
		s.step(c, vault.NewWithdrawTenPercentInstruction(
			s.programID,
			&vault.WithdrawTenPercentInstructionAccounts{
				Source:      s.payer,
				Destination: s.vault,
			},
		))
	}

	return nil
}

// step executes instruction in its own transaction. Failures are reported and
// the simulation carries on, since the bank leaves state untouched.
func (s *simulation) step(c *cli.Context, instruction solana.Instruction) {
	decoded, err := vault.DecodeInstruction(instruction.Data)
	if err != nil {
		s.log.WithError(err).Warn("skipping undecodable instruction")
		return
	}

	ctx, end := metrics.StartTransaction(c.Context, metricsProvider(c), "vault "+decoded.Type().String())
	defer end()

	_, err = s.bank.Execute(ctx, instruction)
	var instructionErr *solana.InstructionError
	if errors.As(err, &instructionErr) {
		fmt.Fprintf(s.out, "%s failed: %s %s\n", decoded, instructionErr.ErrorKey(), instructionErr.JSONString())
	} else if err != nil {
		fmt.Fprintf(s.out, "%s failed: %s\n", decoded, solana.ErrorKeyOf(err))
	}
	s.printBalances(decoded.String())
}

func (s *simulation) printBalances(label string) {
	fmt.Fprintf(
		s.out,
		"%-32s payer=%d vault=%d\n",
		label,
		s.bank.GetBalance(s.payer),
		s.bank.GetBalance(s.vault),
	)
}
