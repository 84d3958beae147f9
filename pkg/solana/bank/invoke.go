package bank

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/rent"
	"github.com/code-payments/vault-program/pkg/solana/runtime"
)

// frame is one level of the invocation stack. pre holds the state of each
// unique account as of the last point the frame's changes were verified.
type frame struct {
	programID ed25519.PublicKey
	accounts  []*runtime.Account
	pre       map[string]runtime.State
}

func newFrame(programID ed25519.PublicKey, accounts []*runtime.Account) *frame {
	f := &frame{
		programID: programID,
		accounts:  accounts,
	}
	f.refresh()
	return f
}

// unique returns the frame's handles with duplicates removed, keeping the
// first handle seen for each key.
func (f *frame) unique() map[string]*runtime.Account {
	unique := make(map[string]*runtime.Account, len(f.accounts))
	for _, account := range f.accounts {
		key := solana.KeyString(account.Key())
		if _, ok := unique[key]; !ok {
			unique[key] = account
		}
	}
	return unique
}

// owns reports whether account is one of the handles the frame was given.
// Handles a program builds itself are never accepted by the host.
func (f *frame) owns(account *runtime.Account) bool {
	for _, candidate := range f.accounts {
		if candidate == account {
			return true
		}
	}
	return false
}

func (f *frame) refresh() {
	f.pre = make(map[string]runtime.State, len(f.accounts))
	for key, account := range f.unique() {
		f.pre[key] = runtime.State{
			Lamports:   account.Lamports(),
			Owner:      account.Owner(),
			DataLen:    account.DataLen(),
			Executable: account.Executable(),
		}
	}
}

// verify checks the changes made since the last refresh against what the
// frame's program is allowed to do:
//
//   - only the owner may debit an account
//   - only the owner may reassign or resize an account
//   - lamports are neither created nor destroyed
func (f *frame) verify() error {
	var preHi, preLo, postHi, postLo, carry uint64

	for key, account := range f.unique() {
		pre := f.pre[key]
		ownedByProgram := bytes.Equal(pre.Owner, f.programID)

		if account.Lamports() < pre.Lamports && !ownedByProgram {
			return errors.Wrapf(runtime.ErrExternalLamportSpend, "account %s", key)
		}
		if !bytes.Equal(account.Owner(), pre.Owner) && !ownedByProgram {
			return errors.Wrapf(runtime.ErrModifiedProgramID, "account %s", key)
		}
		if account.DataLen() != pre.DataLen && !ownedByProgram {
			return errors.Wrapf(runtime.ErrReadonlyDataModified, "account %s", key)
		}
		if account.Executable() != pre.Executable {
			return errors.Wrapf(runtime.ErrReadonlyDataModified, "account %s", key)
		}

		preLo, carry = bits.Add64(preLo, pre.Lamports, 0)
		preHi += carry
		postLo, carry = bits.Add64(postLo, account.Lamports(), 0)
		postHi += carry
	}

	if preHi != postHi || preLo != postLo {
		return runtime.ErrUnbalancedInstruction
	}
	return nil
}

// invokeContext is the runtime.Host a program sees while the bank executes
// one top-level instruction.
type invokeContext struct {
	ctx     context.Context
	bank    *Bank
	receipt *Receipt
	frames  []*frame
}

var _ runtime.Host = (*invokeContext)(nil)

func (ic *invokeContext) process(program runtime.Program, programID ed25519.PublicKey, accounts []*runtime.Account, data []byte) error {
	programKey := solana.KeyString(programID)
	depth := len(ic.frames) + 1

	ic.appendLog(fmt.Sprintf("Program %s invoke [%d]", programKey, depth))

	f := newFrame(programID, accounts)
	ic.frames = append(ic.frames, f)
	defer func() {
		ic.frames = ic.frames[:len(ic.frames)-1]
	}()

	err := program.Process(ic, programID, accounts, data)
	if err == nil {
		err = f.verify()
	}
	if err != nil {
		ic.appendLog(fmt.Sprintf("Program %s failed: %s", programKey, solana.ErrorKeyOf(err)))
		return err
	}

	ic.appendLog(fmt.Sprintf("Program %s success", programKey))
	return nil
}

// Rent implements runtime.Host.Rent
func (ic *invokeContext) Rent() rent.Rent {
	return ic.bank.Rent(ic.ctx)
}

// Log implements runtime.Host.Log
func (ic *invokeContext) Log(message string) {
	ic.appendLog("Program log: " + message)
}

// Invoke implements runtime.Host.Invoke
func (ic *invokeContext) Invoke(instruction solana.Instruction, accounts []*runtime.Account) error {
	maxDepth := ic.bank.conf.maxInvokeDepth.Get(ic.ctx)
	if uint64(len(ic.frames)) >= maxDepth {
		return errors.Wrapf(runtime.ErrCallDepth, "max depth %d", maxDepth)
	}

	caller := ic.frames[len(ic.frames)-1]

	programAccount := runtime.FindAccount(accounts, instruction.Program)
	if programAccount == nil || !caller.owns(programAccount) {
		return errors.Wrapf(runtime.ErrMissingAccount, "program account %s", solana.KeyString(instruction.Program))
	}
	if !programAccount.Executable() {
		return errors.Wrapf(runtime.ErrUnsupportedProgram, "account %s is not executable", solana.KeyString(instruction.Program))
	}

	program, ok := ic.bank.programs[solana.KeyString(instruction.Program)]
	if !ok {
		return errors.Wrapf(runtime.ErrUnsupportedProgram, "program %s", solana.KeyString(instruction.Program))
	}

	callee := make([]*runtime.Account, len(instruction.Accounts))
	for i, meta := range instruction.Accounts {
		account := runtime.FindAccount(accounts, meta.PublicKey)
		if account == nil {
			return errors.Wrapf(runtime.ErrMissingAccount, "account %s", solana.KeyString(meta.PublicKey))
		}
		if !caller.owns(account) {
			return errors.Wrapf(runtime.ErrMissingAccount, "account %s was not lent to the caller", solana.KeyString(meta.PublicKey))
		}

		reborrowed, err := account.Reborrow(meta.IsSigner, meta.IsWritable)
		if err != nil {
			return err
		}
		callee[i] = reborrowed
	}

	if err := caller.verify(); err != nil {
		return err
	}
	caller.refresh()

	// The callee's changes are verified in its own frame. Once accepted, they
	// become the caller's new baseline.
	if err := ic.process(program, instruction.Program, callee, instruction.Data); err != nil {
		return err
	}
	caller.refresh()

	return nil
}

func (ic *invokeContext) appendLog(line string) {
	ic.receipt.Logs = append(ic.receipt.Logs, line)

	if ic.bank.conf.logProgramOutput.Get(ic.ctx) {
		ic.bank.log.WithFields(logrus.Fields{
			"method": "Invoke",
			"depth":  len(ic.frames),
		}).Debug(line)
	}
}
