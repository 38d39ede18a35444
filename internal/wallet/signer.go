package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var ErrKeySource = errors.New("wallet: provide exactly one of --keyfile or WALLET_PRIVATE_KEY")

// KeySource names where the signing key comes from. Exactly one field may
// be set.
type KeySource struct {
	// Keyfile is a solana-keygen JSON array file.
	Keyfile string
	// PrivateKey is a base58 64-byte key, a JSON array, or 32/64 bytes of hex.
	PrivateKey string
}

// Signer holds an ed25519 keypair and signs transactions it is the payer of.
type Signer struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// LoadSigner resolves src into a Signer.
func LoadSigner(src KeySource) (*Signer, error) {
	hasFile := strings.TrimSpace(src.Keyfile) != ""
	hasKey := strings.TrimSpace(src.PrivateKey) != ""
	if hasFile == hasKey {
		return nil, ErrKeySource
	}

	var (
		priv solana.PrivateKey
		err  error
	)
	if hasFile {
		priv, err = keyFromFile(src.Keyfile)
	} else {
		priv, err = parsePrivateKey(src.PrivateKey)
	}
	if err != nil {
		return nil, err
	}
	return NewSigner(priv), nil
}

func NewSigner(priv solana.PrivateKey) *Signer {
	return &Signer{priv: priv, pub: priv.PublicKey()}
}

func (s *Signer) PublicKey() solana.PublicKey { return s.pub }

// SignTx signs tx with the wallet key. Every other required signer is left
// unsigned, which makes Sign fail.
func (s *Signer) SignTx(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.pub) {
			return &s.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

func keyFromFile(path string) (solana.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to read %s: %w", path, err)
	}
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("wallet: keypair file %s must be a JSON array of numbers", path)
	}
	return parsePrivateKey(s)
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		return fromKeyBytes(b)
	}

	if looksLikeHex(s) {
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, fmt.Errorf("wallet: invalid hex private key: %w", err)
		}
		return fromKeyBytes(b)
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	return fromKeyBytes(raw)
}

// fromKeyBytes accepts a 64-byte keypair or a 32-byte seed.
func fromKeyBytes(b []byte) (solana.PrivateKey, error) {
	switch len(b) {
	case ed25519.PrivateKeySize:
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	case ed25519.SeedSize:
		return solana.PrivateKey(ed25519.NewKeyFromSeed(b)), nil
	default:
		return nil, fmt.Errorf("wallet: expected %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(b))
	}
}

func looksLikeHex(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*ed25519.SeedSize && len(s) != 2*ed25519.PrivateKeySize {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
