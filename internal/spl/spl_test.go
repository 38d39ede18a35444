package spl

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	pk, err := ParseAddress("mint", " So11111111111111111111111111111111111111112 ")
	require.NoError(t, err)
	assert.True(t, pk.Equals(NativeMint))

	_, err = ParseAddress("recipient", "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Contains(t, err.Error(), "recipient")

	_, err = ParseAddress("recipient", "not-a-key")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFindAssociatedTokenAddress_Deterministic(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	a1, err := FindAssociatedTokenAddress(owner, USDCMainnet)
	require.NoError(t, err)
	a2, err := FindAssociatedTokenAddress(owner, USDCMainnet)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	other, err := FindAssociatedTokenAddress(owner, NativeMint)
	require.NoError(t, err)
	assert.NotEqual(t, a1, other)
}

func TestNewCreateIdempotentATAIx(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	ata, err := FindAssociatedTokenAddress(payer, USDCMainnet)
	require.NoError(t, err)

	ix := NewCreateIdempotentATAIx(payer, ata, payer, USDCMainnet)
	assert.Equal(t, AssociatedTokenAccountProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	accs := ix.Accounts()
	require.Len(t, accs, 6)
	assert.True(t, accs[0].IsSigner)
	assert.True(t, accs[1].IsWritable)
	assert.Equal(t, USDCMainnet, accs[3].PublicKey)
	assert.Equal(t, SystemProgramID, accs[4].PublicKey)
	assert.Equal(t, TokenProgramID, accs[5].PublicKey)
}

func TestNewSystemTransferIx(t *testing.T) {
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	ix := NewSystemTransferIx(from, to, 1_500_000_000)
	assert.Equal(t, SystemProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(1_500_000_000), binary.LittleEndian.Uint64(data[4:12]))
}

func TestNewSyncNativeIx(t *testing.T) {
	acct := solana.NewWallet().PublicKey()
	ix := NewSyncNativeIx(acct)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{17}, data)
	require.Len(t, ix.Accounts(), 1)
	assert.True(t, ix.Accounts()[0].IsWritable)
}

func TestNewTransferCheckedIx(t *testing.T) {
	src := solana.NewWallet().PublicKey()
	dst := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix := NewTransferCheckedIx(src, USDCMainnet, dst, owner, 2_500_000, 6)
	assert.Equal(t, TokenProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 10)
	assert.Equal(t, byte(12), data[0])
	assert.Equal(t, uint64(2_500_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, byte(6), data[9])

	accs := ix.Accounts()
	require.Len(t, accs, 4)
	assert.Equal(t, src, accs[0].PublicKey)
	assert.Equal(t, USDCMainnet, accs[1].PublicKey)
	assert.Equal(t, dst, accs[2].PublicKey)
	assert.True(t, accs[3].IsSigner)
}

func TestDecodeMint(t *testing.T) {
	in := token.Mint{Supply: 1_000_000, Decimals: 6, IsInitialized: true}

	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBinEncoder(buf).Encode(&in))

	out, err := DecodeMint(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint8(6), out.Decimals)
	assert.Equal(t, uint64(1_000_000), out.Supply)

	_, err = DecodeMint([]byte{1, 2})
	assert.Error(t, err)
}
