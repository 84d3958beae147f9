package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/vault"
)

var DecodeCmd = cli.Command{
	Action:    doDecode,
	Name:      "decode",
	Usage:     "Decode hex encoded instruction data",
	ArgsUsage: "<hex>",
}

func doDecode(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one hex argument")
	}

	data, err := hex.DecodeString(strings.TrimPrefix(c.Args().First(), "0x"))
	if err != nil {
		return errors.Wrap(err, "invalid hex")
	}

	instruction, err := vault.DecodeInstruction(data)
	if err != nil {
		return errors.Wrapf(err, "error key %s", solana.ErrorKeyOf(err))
	}

	fmt.Fprintln(c.App.Writer, instruction.String())
	return nil
}

var EncodeCmd = cli.Command{
	Name:  "encode",
	Usage: "Print the hex encoding of an instruction",
	Subcommands: []*cli.Command{
		{
			Name:   "initialize",
			Usage:  "InitializeAccount",
			Action: doEncode(func(*cli.Context) (vault.Instruction, error) { return vault.InitializeAccount{}, nil }),
		},
		{
			Name:      "deposit",
			Usage:     "Deposit a lamport amount",
			ArgsUsage: "<amount>",
			Action: doEncode(func(c *cli.Context) (vault.Instruction, error) {
				if c.Args().Len() != 1 {
					return nil, errors.New("expected exactly one amount argument")
				}

				amount, err := strconv.ParseUint(c.Args().First(), 10, 64)
				if err != nil {
					return nil, errors.Wrap(err, "invalid amount")
				}
				return vault.Deposit{Amount: amount}, nil
			}),
		},
		{
			Name:   "withdraw",
			Usage:  "WithdrawTenPercent",
			Action: doEncode(func(*cli.Context) (vault.Instruction, error) { return vault.WithdrawTenPercent{}, nil }),
		},
	},
}

func doEncode(build func(*cli.Context) (vault.Instruction, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		instruction, err := build(c)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.App.Writer, hex.EncodeToString(instruction.Marshal()))
		return nil
	}
}
