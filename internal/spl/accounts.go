package spl

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go/programs/token"
)

// DecodeMint decodes the data of an SPL Token mint account.
func DecodeMint(data []byte) (*token.Mint, error) {
	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	return &mint, nil
}

// DecodeTokenAccount decodes the data of an SPL Token account.
func DecodeTokenAccount(data []byte) (*token.Account, error) {
	var acc token.Account
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &acc, nil
}
