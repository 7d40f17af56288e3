package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

// WalletBytesLen is the length of an account identifier in V2 wallet
// format: one version byte, Hash160 of the verification script, 4
// checksum bytes.
const WalletBytesLen = 1 + interop.Hash160Len + 4

// WalletToScriptHash extracts script hash from an account identifier in
// V2 wallet format.
func WalletToScriptHash(wallet []byte) interop.Hash160 {
	return wallet[1 : len(wallet)-4]
}

// IsValidWallet reports whether given bytes look like an account
// identifier in V2 wallet format.
func IsValidWallet(wallet []byte) bool {
	return len(wallet) == WalletBytesLen
}

// BytesEqual compares two slices of bytes by wrapping them into strings,
// which is necessary with util.Equal interop behaviour, see neo-go#1176.
func BytesEqual(a []byte, b []byte) bool {
	return util.Equals(string(a), string(b))
}

// AbortWithMessage calls `runtime.Log` with passed message
// and calls `ABORT` opcode.
func AbortWithMessage(msg string) {
	runtime.Log(msg)
	util.Abort()
}
