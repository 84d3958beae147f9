package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-program/pkg/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	var out, errOut bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(append([]string{appName}, args...))
	testutil.DisableLogging()
	return out.String(), err
}

func TestDecode(t *testing.T) {
	out, err := run(t, "decode", "016400000000000000")
	require.NoError(t, err)
	assert.Equal(t, "Deposit{amount: 100}\n", out)

	out, err = run(t, "decode", "0x02ff")
	require.NoError(t, err)
	assert.Equal(t, "WithdrawTenPercent\n", out)

	_, err = run(t, "decode", "03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidInstructionData")

	_, err = run(t, "decode", "zz")
	assert.Error(t, err)

	_, err = run(t, "decode")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	out, err := run(t, "encode", "initialize")
	require.NoError(t, err)
	assert.Equal(t, "00\n", out)

	out, err = run(t, "encode", "deposit", "100")
	require.NoError(t, err)
	assert.Equal(t, "016400000000000000\n", out)

	out, err = run(t, "encode", "withdraw")
	require.NoError(t, err)
	assert.Equal(t, "02\n", out)

	_, err = run(t, "encode", "deposit", "-1")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "--payer-lamports", "2000000", "--deposit", "100000", "--withdrawals", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3+5)

	// 2000000 - 890880 - 100000 = 1009120; withdrawals move a tenth each time
	assert.Contains(t, lines[3], "payer=2000000 vault=0")
	assert.Contains(t, lines[4], "payer=1109120 vault=890880")
	assert.Contains(t, lines[5], "payer=1009120 vault=990880")
	assert.Contains(t, lines[6], "payer=908208 vault=1091792")
	assert.Contains(t, lines[7], "payer=817388 vault=1182612")
}

func TestSimulate_Failures(t *testing.T) {
	out, err := run(t, "simulate", "--payer-lamports", "9", "--deposit", "0", "--withdrawals", "1")
	require.NoError(t, err)

	assert.Contains(t, out, `InitializeAccount failed: InsufficientFunds [0, "InsufficientFunds"]`)
	assert.Contains(t, out, `Deposit{amount: 0} failed: InvalidInstructionData [0, "InvalidInstructionData"]`)
	assert.Contains(t, out, `WithdrawTenPercent failed: InsufficientFunds [0, "InsufficientFunds"]`)
	assert.NotContains(t, out, "vault=890880")
}
