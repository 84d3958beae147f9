package wrapper

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-program/pkg/config"
	"github.com/code-payments/vault-program/pkg/config/memory"
)

type typedGetter[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type lifecycleCase[T any] struct {
	defaultValue   T
	overridenValue T
	encoded        []byte // byte encoding of overridenValue
	invalid        []byte // byte value that fails to convert, nil to skip
	unsupported    interface{}
}

func testLifecycle[T any](t *testing.T, wrapperFn func(config.Config, T) typedGetter[T], tc lifecycleCase[T]) {
	ctx := context.Background()
	mock := memory.NewConfig(nil)
	wrapper := wrapperFn(mock, tc.defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)
	assert.Equal(t, tc.defaultValue, wrapper.Get(ctx))

	// The overriden value is returned when set
	mock.SetValue(tc.overridenValue)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.overridenValue, val)

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.Equal(t, tc.overridenValue, val)
	assert.Equal(t, tc.overridenValue, wrapper.Get(ctx))

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)

	// Env configs hand out raw bytes
	mock.SetValue(tc.encoded)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.overridenValue, val)

	if tc.invalid != nil {
		mock.SetValue(tc.invalid)
		val, err = wrapper.GetSafe(ctx)
		require.Error(t, err)
		assert.Equal(t, tc.overridenValue, val)
	}

	// Return an unsupported source value type
	mock.SetValue(tc.unsupported)
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, tc.overridenValue, val)

	// Shutdown via the wrapper
	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	testLifecycle(t, func(c config.Config, v bool) typedGetter[bool] { return NewBoolConfig(c, v) }, lifecycleCase[bool]{
		defaultValue:   true,
		overridenValue: false,
		encoded:        []byte("false"),
		invalid:        []byte("cannot convert"),
		unsupported:    "not supported",
	})
}

func TestUint64Config(t *testing.T) {
	testLifecycle(t, func(c config.Config, v uint64) typedGetter[uint64] { return NewUint64Config(c, v) }, lifecycleCase[uint64]{
		defaultValue:   math.MaxUint64,
		overridenValue: 3480,
		encoded:        []byte("3480"),
		invalid:        []byte("-1"),
		unsupported:    "not supported",
	})

	// Plain uints are accepted too
	mock := memory.NewConfig(uint(42))
	val, err := NewUint64Config(mock, 0).GetSafe(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, val)
}

func TestFloat64Config(t *testing.T) {
	testLifecycle(t, func(c config.Config, v float64) typedGetter[float64] { return NewFloat64Config(c, v) }, lifecycleCase[float64]{
		defaultValue:   math.Pi,
		overridenValue: -2.5,
		encoded:        []byte("-2.5"),
		invalid:        []byte("cannot convert"),
		unsupported:    "not supported",
	})
}
