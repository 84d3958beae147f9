package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/vault-program/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_UINT64", "3480")
	t.Setenv("ENV_CONFIG_TEST_FLOAT64", "2.5")
	t.Setenv("ENV_CONFIG_TEST_BOOL", "false")

	// Keys are upper-cased before lookup
	assert.EqualValues(t, 3480, NewUint64Config("env_config_test_uint64", 1).Get(ctx))
	assert.Equal(t, 2.5, NewFloat64Config("ENV_CONFIG_TEST_FLOAT64", 1).Get(ctx))
	assert.False(t, NewBoolConfig("ENV_CONFIG_TEST_BOOL", true).Get(ctx))

	assert.EqualValues(t, 7, NewUint64Config("ENV_CONFIG_TEST_UNSET", 7).Get(ctx))
}
