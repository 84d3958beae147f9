package bank

import (
	"github.com/code-payments/vault-program/pkg/config"
	"github.com/code-payments/vault-program/pkg/config/env"
	"github.com/code-payments/vault-program/pkg/config/memory"
	"github.com/code-payments/vault-program/pkg/config/wrapper"
	"github.com/code-payments/vault-program/pkg/solana/rent"
)

const (
	envConfigPrefix = "SOLANA_BANK_"

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = rent.DefaultLamportsPerByteYear

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = rent.DefaultExemptionThreshold

	RentBurnPercentConfigEnvName = envConfigPrefix + "RENT_BURN_PERCENT"
	defaultRentBurnPercent       = rent.DefaultBurnPercent

	LogProgramOutputConfigEnvName = envConfigPrefix + "LOG_PROGRAM_OUTPUT"
	defaultLogProgramOutput       = true

	MaxInvokeDepthConfigEnvName = envConfigPrefix + "MAX_INVOKE_DEPTH"
	defaultMaxInvokeDepth       = 4
)

type conf struct {
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Float64
	rentBurnPercent         config.Uint64
	logProgramOutput        config.Bool
	maxInvokeDepth          config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewFloat64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			rentBurnPercent:         env.NewUint64Config(RentBurnPercentConfigEnvName, defaultRentBurnPercent),
			logProgramOutput:        env.NewBoolConfig(LogProgramOutputConfigEnvName, defaultLogProgramOutput),
			maxInvokeDepth:          env.NewUint64Config(MaxInvokeDepthConfigEnvName, defaultMaxInvokeDepth),
		}
	}
}

// WithRent returns a static configuration using the provided rent parameters.
// Everything else uses its default.
func WithRent(r rent.Rent) ConfigProvider {
	return withManualTestOverrides(&testOverrides{
		rent: &r,
	})
}

type testOverrides struct {
	rent           *rent.Rent
	maxInvokeDepth uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	r := rent.Default()
	if overrides.rent != nil {
		r = *overrides.rent
	}

	maxInvokeDepth := uint64(defaultMaxInvokeDepth)
	if overrides.maxInvokeDepth > 0 {
		maxInvokeDepth = overrides.maxInvokeDepth
	}

	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: wrapper.NewUint64Config(memory.NewConfig(r.LamportsPerByteYear), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  wrapper.NewFloat64Config(memory.NewConfig(r.ExemptionThreshold), defaultRentExemptionThreshold),
			rentBurnPercent:         wrapper.NewUint64Config(memory.NewConfig(uint64(r.BurnPercent)), defaultRentBurnPercent),
			logProgramOutput:        wrapper.NewBoolConfig(memory.NewConfig(false), defaultLogProgramOutput),
			maxInvokeDepth:          wrapper.NewUint64Config(memory.NewConfig(maxInvokeDepth), defaultMaxInvokeDepth),
		}
	}
}
