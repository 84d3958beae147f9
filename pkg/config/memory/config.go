package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-program/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

// Config is an in memory config.Config. Static providers and tests use it to
// supply values without touching the environment.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	induced  bool
	shutdown bool
}

// NewConfig returns a new in memory config. A nil value means no value is
// set.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.induced:
		return nil, errDeveloperInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements Config.Shutdown
func (c *Config) Shutdown() {
	c.update(func() { c.shutdown = true })
}

// SetValue sets the value returned by subsequent Get calls
func (c *Config) SetValue(value interface{}) {
	c.update(func() { c.value = value })
}

// ClearValue makes subsequent Get calls return config.ErrNoValue
func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors makes subsequent Get calls fail until StopInducingErrors
func (c *Config) InduceErrors() {
	c.update(func() { c.induced = true })
}

func (c *Config) StopInducingErrors() {
	c.update(func() { c.induced = false })
}

func (c *Config) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}
