package runtime

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/solana"
)

// State is the host-owned storage behind an account. Programs never see it
// directly, only through an Account handle.
type State struct {
	Lamports   uint64
	Owner      ed25519.PublicKey
	DataLen    uint64
	Executable bool
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	owner := make(ed25519.PublicKey, len(s.Owner))
	copy(owner, s.Owner)
	return State{
		Lamports:   s.Lamports,
		Owner:      owner,
		DataLen:    s.DataLen,
		Executable: s.Executable,
	}
}

// Account is a handle to host-owned account state borrowed for the duration
// of one instruction. Each mutable field has exactly one setter, which checks
// the write permission granted by the instruction.
type Account struct {
	key        ed25519.PublicKey
	state      *State
	isSigner   bool
	isWritable bool
}

// NewAccount creates a handle over state. Only hosts should call this.
func NewAccount(key ed25519.PublicKey, state *State, isSigner, isWritable bool) *Account {
	return &Account{
		key:        key,
		state:      state,
		isSigner:   isSigner,
		isWritable: isWritable,
	}
}

func (a *Account) Key() ed25519.PublicKey {
	return a.key
}

func (a *Account) Owner() ed25519.PublicKey {
	return a.state.Owner
}

func (a *Account) Lamports() uint64 {
	return a.state.Lamports
}

func (a *Account) DataLen() uint64 {
	return a.state.DataLen
}

func (a *Account) Executable() bool {
	return a.state.Executable
}

func (a *Account) IsSigner() bool {
	return a.isSigner
}

func (a *Account) IsWritable() bool {
	return a.isWritable
}

// IsOwnedBy reports whether program owns the account.
func (a *Account) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.state.Owner, program)
}

// SetLamports replaces the account balance.
func (a *Account) SetLamports(lamports uint64) error {
	if !a.isWritable && lamports != a.state.Lamports {
		return errors.Wrapf(ErrReadonlyLamportChange, "account %s", solana.KeyString(a.key))
	}
	a.state.Lamports = lamports
	return nil
}

// SetOwner assigns the account to program.
func (a *Account) SetOwner(program ed25519.PublicKey) error {
	if !a.isWritable {
		return errors.Wrapf(ErrReadonlyDataModified, "account %s", solana.KeyString(a.key))
	}
	owner := make(ed25519.PublicKey, len(program))
	copy(owner, program)
	a.state.Owner = owner
	return nil
}

// SetDataLen allocates size bytes of account data.
func (a *Account) SetDataLen(size uint64) error {
	if !a.isWritable {
		return errors.Wrapf(ErrReadonlyDataModified, "account %s", solana.KeyString(a.key))
	}
	a.state.DataLen = size
	return nil
}

// Reborrow returns a new handle over the same state with the requested
// privileges, which may not exceed this handle's.
func (a *Account) Reborrow(isSigner, isWritable bool) (*Account, error) {
	if isSigner && !a.isSigner {
		return nil, errors.Wrapf(ErrPrivilegeEscalation, "account %s is not a signer", solana.KeyString(a.key))
	}
	if isWritable && !a.isWritable {
		return nil, errors.Wrapf(ErrPrivilegeEscalation, "account %s is not writable", solana.KeyString(a.key))
	}
	return NewAccount(a.key, a.state, isSigner, isWritable), nil
}

// FindAccount returns the handle for key within accounts, or nil.
func FindAccount(accounts []*Account, key ed25519.PublicKey) *Account {
	for _, account := range accounts {
		if bytes.Equal(account.key, key) {
			return account
		}
	}
	return nil
}
