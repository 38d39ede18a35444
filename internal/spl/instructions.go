package spl

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// createIdempotent is the ATA program CreateIdempotent discriminator.
const createIdempotent byte = 1

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint).
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	// Seeds: [owner, token_program, mint]
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		AssociatedTokenAccountProgramID,
	)
	return ata, err
}

// NewCreateIdempotentATAIx creates the ATA if it is missing and is a no-op
// otherwise.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner
// 3. mint
// 4. system_program
// 5. token_program
func NewCreateIdempotentATAIx(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(AssociatedTokenAccountProgramID, accounts, []byte{createIdempotent})
}

func NewSystemTransferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// NewSyncNativeIx refreshes a wSOL account's token amount after lamports
// were transferred into it.
func NewSyncNativeIx(nativeAccount solana.PublicKey) solana.Instruction {
	return token.NewSyncNativeInstruction(nativeAccount).Build()
}

func NewTransferCheckedIx(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewTransferCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		destination,
		owner,
		nil,
	).Build()
}

func NewCloseAccountIx(account, destination, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, destination, owner, nil).Build()
}
