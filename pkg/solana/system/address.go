package system

import (
	"github.com/code-payments/vault-program/pkg/solana"
)

// NativeLoaderKey owns builtin programs, including this one.
//
// https://explorer.solana.com/address/NativeLoader1111111111111111111111111111111
var NativeLoaderKey = solana.MustPublicKeyFromString("NativeLoader1111111111111111111111111111111")
