package rpc

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrSimulationFailed = errors.New("simulation failed")
	ErrConfirmTimeout   = errors.New("transaction confirmation timeout")
	ErrTransactionError = errors.New("transaction failed")
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Commitment is a Solana commitment level.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// ParseCommitment accepts processed, confirmed or finalized.
func ParseCommitment(s string) (Commitment, error) {
	switch c := Commitment(s); c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return c, nil
	}
	return "", fmt.Errorf("invalid commitment %q (use processed, confirmed or finalized)", s)
}

// reached reports whether status satisfies c.
func (c Commitment) reached(status string) bool {
	switch c {
	case CommitmentFinalized:
		return status == "finalized"
	case CommitmentConfirmed:
		return status == "confirmed" || status == "finalized"
	default:
		return status != ""
	}
}

// AccountInfo is the decoded result of getAccountInfo.
type AccountInfo struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// TokenAmount is a token account balance in raw units.
type TokenAmount struct {
	Amount   uint64
	Decimals uint8
	Slot     uint64
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Success       bool
	Error         string
	Logs          []string
	UnitsConsumed uint64
}

// SendOptions configures transaction sending behavior
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
	MaxRetries          *int
}

// DefaultSendOptions returns recommended send settings
func DefaultSendOptions() SendOptions {
	maxRetries := 3
	return SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: CommitmentProcessed,
		MaxRetries:          &maxRetries,
	}
}
