package rpc

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
)

// GetBalance returns the lamport balance of pubkey.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	var resp struct {
		Result struct {
			Value uint64 `json:"value"` // lamports
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		pubkey.String(),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance: %w", resp.Error)
	}
	return resp.Result.Value, nil
}

// GetAccountInfo fetches an account with base64 data. A missing account
// yields ErrAccountNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*AccountInfo, error) {
	var resp struct {
		Result struct {
			Value *struct {
				Owner      string   `json:"owner"`
				Lamports   uint64   `json:"lamports"`
				Data       []string `json:"data"`
				Executable bool     `json:"executable"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		pubkey.String(),
		map[string]any{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, fmt.Errorf("getAccountInfo RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getAccountInfo: %w", resp.Error)
	}
	v := resp.Result.Value
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}

	owner, err := solana.PublicKeyFromBase58(v.Owner)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo: invalid owner %q: %w", v.Owner, err)
	}

	info := &AccountInfo{Owner: owner, Lamports: v.Lamports, Executable: v.Executable}
	if len(v.Data) > 0 && v.Data[0] != "" {
		info.Data, err = base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, fmt.Errorf("getAccountInfo: decode data: %w", err)
		}
	}
	return info, nil
}

// GetTokenAccountBalance returns the raw token amount held by account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*TokenAmount, error) {
	var resp struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Amount         string `json:"amount"`
				Decimals       uint8  `json:"decimals"`
				UIAmountString string `json:"uiAmountString"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		account.String(),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return nil, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTokenAccountBalance: %w", resp.Error)
	}

	amount, err := strconv.ParseUint(resp.Result.Value.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	return &TokenAmount{
		Amount:   amount,
		Decimals: resp.Result.Value.Decimals,
		Slot:     resp.Result.Context.Slot,
	}, nil
}

// GetLatestBlockhash fetches the most recent blockhash at the client's
// commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var resp struct {
		Result struct {
			Value struct {
				Blockhash            string `json:"blockhash"`
				LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: %w", resp.Error)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SimulateTransaction dry-runs a signed transaction. When the runtime
// reports an error the result carries the program logs and the returned
// error wraps ErrSimulationFailed.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	var resp struct {
		Result struct {
			Value struct {
				Err           interface{} `json:"err"`
				Logs          []string    `json:"logs"`
				UnitsConsumed uint64      `json:"unitsConsumed,omitempty"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		base64.StdEncoding.EncodeToString(txBytes),
		map[string]any{
			"encoding":   "base64",
			"commitment": CommitmentProcessed,
			"sigVerify":  true,
		},
	}

	if err := c.Call(ctx, "simulateTransaction", params, &resp); err != nil {
		return nil, fmt.Errorf("simulateTransaction failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("simulateTransaction: %w", resp.Error)
	}

	result := &SimulationResult{
		Logs:          resp.Result.Value.Logs,
		UnitsConsumed: resp.Result.Value.UnitsConsumed,
	}

	if resp.Result.Value.Err != nil {
		result.Error = fmt.Sprintf("%v", resp.Result.Value.Err)
		return result, fmt.Errorf("%w: %s", ErrSimulationFailed, result.Error)
	}

	result.Success = true
	return result, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts *SendOptions) (solana.Signature, error) {
	if opts == nil {
		defaultOpts := DefaultSendOptions()
		opts = &defaultOpts
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	cfg := map[string]any{
		"encoding":            "base64",
		"skipPreflight":       opts.SkipPreflight,
		"preflightCommitment": opts.PreflightCommitment,
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}

	var resp struct {
		Result string    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	params := []any{base64.StdEncoding.EncodeToString(txBytes), cfg}
	if err := c.Call(ctx, "sendTransaction", params, &resp); err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction RPC failed: %w", err)
	}
	if resp.Error != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: %w", resp.Error)
	}

	sig, err := solana.SignatureFromBase58(resp.Result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: invalid signature %q: %w", resp.Result, err)
	}
	return sig, nil
}

// ConfirmTransaction polls getSignatureStatuses until the signature reaches
// the client's commitment, the transaction fails, or timeout elapses.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for time.Now().Before(deadline) {
		confirmed, err := c.checkSignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if confirmed {
			c.metrics.RecordConfirmationWait(time.Since(start))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("%w after %v", ErrConfirmTimeout, timeout)
}

func (c *Client) checkSignatureStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	var resp struct {
		Result struct {
			Value []*struct {
				Slot               uint64      `json:"slot"`
				Err                interface{} `json:"err"`
				ConfirmationStatus string      `json:"confirmationStatus"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		[]string{sig.String()},
		map[string]any{"searchTransactionHistory": true},
	}

	if err := c.Call(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return false, fmt.Errorf("failed to check signature: %w", err)
	}
	if resp.Error != nil {
		return false, fmt.Errorf("getSignatureStatuses: %w", resp.Error)
	}

	if len(resp.Result.Value) == 0 || resp.Result.Value[0] == nil {
		return false, nil // not yet seen
	}

	status := resp.Result.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransactionError, status.Err)
	}
	return c.commitment.reached(status.ConfirmationStatus), nil
}

// SendAndConfirm submits tx and waits for the client's commitment.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction, timeout time.Duration) (solana.Signature, error) {
	sig, err := c.SendTransaction(ctx, tx, nil)
	if err != nil {
		return solana.Signature{}, err
	}

	c.logger.WithField("signature", sig.String()).Debug("transaction submitted, awaiting confirmation")

	if err := c.ConfirmTransaction(ctx, sig, timeout); err != nil {
		return sig, err
	}
	return sig, nil
}
