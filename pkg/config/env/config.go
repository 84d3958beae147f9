package env

import (
	"context"
	"os"
	"strings"

	"github.com/code-payments/vault-program/pkg/config"
	"github.com/code-payments/vault-program/pkg/config/wrapper"
)

type conf struct {
	val string
}

// NewConfig returns a config backed by the upper-cased environment variable
// key, read once at construction.
func NewConfig(key string) config.Config {
	client := &conf{
		val: os.Getenv(strings.ToUpper(key)),
	}

	return client
}

// Get implements Config.Get
func (c *conf) Get(ctx context.Context) (interface{}, error) {
	if len(c.val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(c.val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a env-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewFloat64Config creates a env-based float64 config
func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

// NewBoolConfig creates a env-based bool config
func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}
