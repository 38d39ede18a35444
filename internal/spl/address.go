// Package spl holds SPL token addresses, associated token account derivation
// and the token/system instructions used by transfers and swaps.
package spl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

var ErrInvalidAddress = errors.New("invalid address")

var (
	TokenProgramID                  = token.ProgramID
	SystemProgramID                 = system.ProgramID
	AssociatedTokenAccountProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// NativeMint is the wrapped SOL mint.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	USDCMainnet = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDCDevnet  = solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
)

// Decimals of the two tokens the wallet knows by name.
const (
	SOLDecimals  uint8 = 9
	USDCDecimals uint8 = 6
)

// ParseAddress is the single place user-supplied base58 strings become
// public keys. label names the field in the error.
func ParseAddress(label, s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s is empty", ErrInvalidAddress, label)
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidAddress, label, s, err)
	}
	return pk, nil
}

// IsNative reports whether mint is wrapped SOL.
func IsNative(mint solana.PublicKey) bool {
	return mint.Equals(NativeMint)
}
