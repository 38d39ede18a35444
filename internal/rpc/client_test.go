package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Logger:       logger,
	})
}

func decodeRequest(t *testing.T, r *http.Request) rpcRequest {
	t.Helper()
	var req rpcRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestCallRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":42}}`))
	})

	bal, err := client.GetBalance(context.Background(), solana.SystemProgramID)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), bal)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCallGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetBalance(context.Background(), solana.SystemProgramID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRPCErrorIsReturned(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`))
	})

	_, err := client.GetBalance(context.Background(), solana.SystemProgramID)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestGetAccountInfo(t *testing.T) {
	t.Run("decodes base64 data", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			req := decodeRequest(t, r)
			assert.Equal(t, "getAccountInfo", req.Method)
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":5},"value":{` +
				`"owner":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","lamports":1461600,` +
				`"data":["AQID","base64"],"executable":false}}}`))
		})

		info, err := client.GetAccountInfo(context.Background(), solana.SystemProgramID)
		require.NoError(t, err)
		assert.Equal(t, solana.TokenProgramID, info.Owner)
		assert.Equal(t, uint64(1461600), info.Lamports)
		assert.Equal(t, []byte{1, 2, 3}, info.Data)
	})

	t.Run("missing account", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":5},"value":null}}`))
		})

		_, err := client.GetAccountInfo(context.Background(), solana.SystemProgramID)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestGetTokenAccountBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":77},"value":{` +
			`"amount":"1000000000","decimals":6,"uiAmountString":"1000"}}}`))
	})

	bal, err := client.GetTokenAccountBalance(context.Background(), solana.SystemProgramID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), bal.Amount)
	assert.Equal(t, uint8(6), bal.Decimals)
	assert.Equal(t, uint64(77), bal.Slot)
}

func TestConfirmTransaction(t *testing.T) {
	sig := solana.Signature{1, 2, 3}

	t.Run("waits for commitment", func(t *testing.T) {
		var polls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			status := `"processed"`
			if atomic.AddInt32(&polls, 1) > 1 {
				status = `"confirmed"`
			}
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[` +
				`{"slot":1,"err":null,"confirmationStatus":` + status + `}]}}`))
		})

		err := client.ConfirmTransaction(context.Background(), sig, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
	})

	t.Run("transaction error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[` +
				`{"slot":1,"err":{"InstructionError":[3,{"Custom":30}]},"confirmationStatus":"processed"}]}}`))
		})

		err := client.ConfirmTransaction(context.Background(), sig, 5*time.Second)
		assert.ErrorIs(t, err, ErrTransactionError)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[null]}}`))
		})

		err := client.ConfirmTransaction(context.Background(), sig, 50*time.Millisecond)
		assert.ErrorIs(t, err, ErrConfirmTimeout)
	})
}

func TestParseCommitment(t *testing.T) {
	for _, s := range []string{"processed", "confirmed", "finalized"} {
		c, err := ParseCommitment(s)
		require.NoError(t, err)
		assert.Equal(t, Commitment(s), c)
	}

	_, err := ParseCommitment("max")
	assert.Error(t, err)
}

func TestCommitmentReached(t *testing.T) {
	assert.True(t, CommitmentConfirmed.reached("finalized"))
	assert.True(t, CommitmentConfirmed.reached("confirmed"))
	assert.False(t, CommitmentConfirmed.reached("processed"))
	assert.False(t, CommitmentFinalized.reached("confirmed"))
	assert.True(t, CommitmentProcessed.reached("processed"))
	assert.False(t, CommitmentProcessed.reached(""))
}
