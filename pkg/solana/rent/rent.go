package rent

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// AccountStorageOverhead is the number of bytes the runtime charges for
	// every account in addition to its data.
	AccountStorageOverhead = 128

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

var ErrInvalidRent = errors.New("invalid rent parameters")

// Rent mirrors the "Rent" sysvar.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// Default returns the rent parameters used by mainnet.
func Default() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// Validate checks that the parameters describe a usable rent schedule.
func (r Rent) Validate() error {
	if math.IsNaN(r.ExemptionThreshold) || math.IsInf(r.ExemptionThreshold, 0) {
		return errors.Wrapf(ErrInvalidRent, "exemption threshold %f is not finite", r.ExemptionThreshold)
	}
	if r.ExemptionThreshold < 0 {
		return errors.Wrapf(ErrInvalidRent, "negative exemption threshold %f", r.ExemptionThreshold)
	}
	if r.BurnPercent > 100 {
		return errors.Wrapf(ErrInvalidRent, "burn percent %d exceeds 100", r.BurnPercent)
	}
	return nil
}

// MinimumBalance returns the smallest balance an account holding dataLen bytes
// must keep to be exempt from rent collection.
//
// Results that don't fit in a uint64 saturate at math.MaxUint64.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes, carry := bits.Add64(AccountStorageOverhead, dataLen, 0)
	if carry != 0 {
		return math.MaxUint64
	}

	hi, lamports := bits.Mul64(bytes, r.LamportsPerByteYear)
	if hi != 0 {
		return math.MaxUint64
	}

	balance := float64(lamports) * r.ExemptionThreshold
	switch {
	case math.IsNaN(balance) || balance <= 0:
		return 0
	case balance >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(balance)
}

// IsExempt reports whether balance is enough to exempt an account holding
// dataLen bytes.
func (r Rent) IsExempt(balance, dataLen uint64) bool {
	return balance >= r.MinimumBalance(dataLen)
}
