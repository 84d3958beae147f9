package bank

import (
	"context"
	"crypto/ed25519"
	"math/bits"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-program/pkg/metrics"
	"github.com/code-payments/vault-program/pkg/solana"
	"github.com/code-payments/vault-program/pkg/solana/rent"
	"github.com/code-payments/vault-program/pkg/solana/runtime"
	"github.com/code-payments/vault-program/pkg/solana/system"
)

const (
	metricsStructName = "solana.bank"

	executeDurationMetricName  = "Bank/execute_duration_ms"
	instructionCountMetricName = "Bank/instruction_count"
	airdropMetricName          = "Bank/airdrop_lamports"
	transactionResultEventName = "BankTransactionResult"

	programAccountLamports = 1
	maxPermittedDataLen    = 10 * 1024 * 1024
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrProgramExists    = errors.New("program already registered")
	ErrEmptyTransaction = errors.New("transaction has no instructions")
)

// Receipt is the outcome of a transaction the bank executed, successful or
// not.
type Receipt struct {
	Logs []string
}

// Bank is an in-memory ledger that executes instructions against registered
// programs. Each call to Execute is a transaction: either every instruction
// in it applies or none do.
type Bank struct {
	log  *logrus.Entry
	conf *conf

	mu       sync.Mutex
	accounts map[string]*runtime.State
	programs map[string]runtime.Program
}

// New returns a bank with the system program loaded.
func New(configProvider ConfigProvider) *Bank {
	b := &Bank{
		log:      logrus.StandardLogger().WithField("type", "solana/bank"),
		conf:     configProvider(),
		accounts: make(map[string]*runtime.State),
		programs: make(map[string]runtime.Program),
	}

	if err := b.RegisterProgram(system.ProgramKey[:], &systemProgram{}); err != nil {
		panic(err)
	}

	return b
}

// RegisterProgram deploys program at programID as an executable account.
func (b *Bank) RegisterProgram(programID ed25519.PublicKey, program runtime.Program) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := solana.KeyString(programID)
	if _, ok := b.programs[key]; ok {
		return ErrProgramExists
	}
	if state, ok := b.accounts[key]; ok && !isEmpty(state) {
		return errors.Wrapf(runtime.ErrAccountAlreadyInUse, "account %s", key)
	}

	b.programs[key] = program
	b.accounts[key] = &runtime.State{
		Lamports:   programAccountLamports,
		Owner:      system.NativeLoaderKey,
		Executable: true,
	}

	b.log.WithField("program", key).Debug("program registered")
	return nil
}

// Airdrop credits lamports to account, creating it as a system account if it
// doesn't exist.
func (b *Bank) Airdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.getOrCreate(account)

	balance, carry := bits.Add64(state.Lamports, lamports, 0)
	if carry != 0 {
		return errors.Wrapf(runtime.ErrArithmeticOverflow, "airdrop of %d to %s", lamports, solana.KeyString(account))
	}
	state.Lamports = balance

	metrics.RecordCount(ctx, airdropMetricName, lamports)
	b.log.WithFields(logrus.Fields{
		"account":  solana.KeyString(account),
		"lamports": lamports,
	}).Debug("airdrop")
	return nil
}

// GetAccount returns a copy of the account's current state.
func (b *Bank) GetAccount(account ed25519.PublicKey) (*runtime.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.accounts[solana.KeyString(account)]
	if !ok || isEmpty(state) {
		return nil, ErrAccountNotFound
	}

	cloned := state.Clone()
	return &cloned, nil
}

// GetBalance returns the account's lamports, or 0 if it doesn't exist.
func (b *Bank) GetBalance(account ed25519.PublicKey) uint64 {
	state, err := b.GetAccount(account)
	if err != nil {
		return 0
	}
	return state.Lamports
}

// Rent returns the rent sysvar currently in effect.
func (b *Bank) Rent(ctx context.Context) rent.Rent {
	r := rent.Rent{
		LamportsPerByteYear: b.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  b.conf.rentExemptionThreshold.Get(ctx),
	}

	burnPercent := b.conf.rentBurnPercent.Get(ctx)
	if burnPercent > 100 {
		b.log.WithField("burn_percent", burnPercent).Warn("invalid rent burn percent, using defaults")
		return rent.Default()
	}
	r.BurnPercent = uint8(burnPercent)

	if err := r.Validate(); err != nil {
		b.log.WithError(err).Warn("invalid rent configuration, using defaults")
		return rent.Default()
	}
	return r
}

// Execute runs instructions as a single transaction. On failure, the
// returned error is a *solana.InstructionError identifying the failing
// instruction and no account state is changed. The receipt is returned in
// both cases.
func (b *Bank) Execute(ctx context.Context, instructions ...solana.Instruction) (*Receipt, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	tracer.AddAttribute("instruction_count", len(instructions))

	start := time.Now()
	defer func() {
		metrics.RecordDuration(ctx, executeDurationMetricName, time.Since(start))
	}()

	if len(instructions) == 0 {
		return &Receipt{}, ErrEmptyTransaction
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.snapshot()
	receipt := &Receipt{}

	for i, instruction := range instructions {
		log := b.log.WithFields(logrus.Fields{
			"method":      "Execute",
			"program":     solana.KeyString(instruction.Program),
			"instruction": i,
		})

		supply := b.supply()

		err := b.processInstruction(ctx, receipt, instruction)
		if err == nil && b.supply() != supply {
			err = errors.Wrap(runtime.ErrUnbalancedInstruction, "lamport supply changed")
		}
		if err != nil {
			b.accounts = snapshot

			instructionErr := solana.NewInstructionError(i, err)
			tracer.OnError(instructionErr)
			metrics.RecordEvent(ctx, transactionResultEventName, map[string]interface{}{
				"success":   false,
				"error_key": string(instructionErr.ErrorKey()),
				"index":     i,
			})
			log.WithError(err).Debug("transaction failed")

			return receipt, instructionErr
		}

		log.Trace("instruction processed")
	}

	b.purge()

	metrics.RecordCount(ctx, instructionCountMetricName, uint64(len(instructions)))
	metrics.RecordEvent(ctx, transactionResultEventName, map[string]interface{}{
		"success": true,
	})
	return receipt, nil
}

func (b *Bank) processInstruction(ctx context.Context, receipt *Receipt, instruction solana.Instruction) error {
	program, ok := b.programs[solana.KeyString(instruction.Program)]
	if !ok {
		return errors.Wrapf(runtime.ErrUnsupportedProgram, "program %s", solana.KeyString(instruction.Program))
	}

	accounts := b.loadAccounts(instruction.Accounts)

	ic := &invokeContext{
		ctx:     ctx,
		bank:    b,
		receipt: receipt,
	}
	return ic.process(program, instruction.Program, accounts, instruction.Data)
}

// loadAccounts returns one handle per meta. Metas that repeat a key share a
// handle carrying the union of their privileges.
func (b *Bank) loadAccounts(metas []solana.AccountMeta) []*runtime.Account {
	type privileges struct {
		isSigner   bool
		isWritable bool
	}

	merged := make(map[string]*privileges)
	for _, meta := range metas {
		key := solana.KeyString(meta.PublicKey)
		p, ok := merged[key]
		if !ok {
			p = &privileges{}
			merged[key] = p
		}
		p.isSigner = p.isSigner || meta.IsSigner
		p.isWritable = p.isWritable || meta.IsWritable
	}

	handles := make(map[string]*runtime.Account)
	accounts := make([]*runtime.Account, len(metas))
	for i, meta := range metas {
		key := solana.KeyString(meta.PublicKey)
		handle, ok := handles[key]
		if !ok {
			p := merged[key]
			handle = runtime.NewAccount(meta.PublicKey, b.getOrCreate(meta.PublicKey), p.isSigner, p.isWritable)
			handles[key] = handle
		}
		accounts[i] = handle
	}
	return accounts
}

func (b *Bank) getOrCreate(account ed25519.PublicKey) *runtime.State {
	key := solana.KeyString(account)

	state, ok := b.accounts[key]
	if !ok {
		owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(owner, system.ProgramKey[:])

		state = &runtime.State{Owner: owner}
		b.accounts[key] = state
	}
	return state
}

func (b *Bank) snapshot() map[string]*runtime.State {
	snapshot := make(map[string]*runtime.State, len(b.accounts))
	for key, state := range b.accounts {
		cloned := state.Clone()
		snapshot[key] = &cloned
	}
	return snapshot
}

// purge drops accounts that were drained to zero, as the runtime does at the
// end of a transaction.
func (b *Bank) purge() {
	for key, state := range b.accounts {
		if isEmpty(state) {
			delete(b.accounts, key)
		}
	}
}

// lamportSupply is a 128-bit total of every balance the bank holds.
type lamportSupply struct {
	hi, lo uint64
}

func (b *Bank) supply() lamportSupply {
	return totalLamports(b.accounts)
}

func totalLamports(accounts map[string]*runtime.State) lamportSupply {
	var total lamportSupply
	var carry uint64
	for _, state := range accounts {
		total.lo, carry = bits.Add64(total.lo, state.Lamports, 0)
		total.hi += carry
	}
	return total
}

func isEmpty(state *runtime.State) bool {
	return state.Lamports == 0 && state.DataLen == 0 && !state.Executable
}
