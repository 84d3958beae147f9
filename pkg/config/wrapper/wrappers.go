package wrapper

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// typedConfig wraps a config.Config, converting its raw values to T and
// falling back to a default when no value is set.
type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      func(raw interface{}) (T, error)

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, convert func(interface{}) (T, error)) *typedConfig[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.stateMu.Lock()
		c.lastValue = c.defaultValue
		c.stateMu.Unlock()
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(raw)
	if err != nil {
		return lastValue, err
	}

	c.stateMu.Lock()
	c.lastValue = newValue
	c.stateMu.Unlock()
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (bool, error) {
		switch typed := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(typed))
		case bool:
			return typed, nil
		default:
			return false, ErrUnsuportedConversion
		}
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch typed := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(typed), 10, 64)
		case uint64:
			return typed, nil
		case uint:
			return uint64(typed), nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewFloat64Config returns a new float64 config utility wrapper
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (float64, error) {
		switch typed := raw.(type) {
		case []byte:
			return strconv.ParseFloat(string(typed), 64)
		case float64:
			return typed, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}
