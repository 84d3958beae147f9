package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-program/pkg/config"
)

func TestLifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(uint64(3480))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3480), val)

	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue(2.0)
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, val)

	// Induced errors take precedence over a set value
	c.InduceErrors()
	_, err = c.Get(ctx)
	assert.Equal(t, errDeveloperInduced, err)

	c.StopInducingErrors()
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, val)

	// Shutdown takes precedence over everything
	c.InduceErrors()
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
