package raydium

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/gagliardetto/solana-go"
)

// BalanceReader is the RPC surface needed to read pool vaults.
type BalanceReader interface {
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.TokenAmount, error)
}

// Client resolves pools from a Registry and reads their live reserves.
type Client struct {
	rpc      BalanceReader
	registry *Registry
}

func NewClient(reader BalanceReader, registry *Registry) *Client {
	return &Client{rpc: reader, registry: registry}
}

func (c *Client) Registry() *Registry {
	return c.registry
}

// FetchPool returns the registered pool with the given AMM id.
func (c *Client) FetchPool(_ context.Context, id solana.PublicKey) (*Pool, error) {
	return c.registry.FindByID(id)
}

// FetchReserves reads both vault balances. The snapshot slot is the lower
// of the two reads.
func (c *Client) FetchReserves(ctx context.Context, pool *Pool) (ReserveSnapshot, error) {
	base, err := c.rpc.GetTokenAccountBalance(ctx, pool.BaseVault)
	if err != nil {
		return ReserveSnapshot{}, fmt.Errorf("failed to fetch base vault balance: %w", err)
	}
	quote, err := c.rpc.GetTokenAccountBalance(ctx, pool.QuoteVault)
	if err != nil {
		return ReserveSnapshot{}, fmt.Errorf("failed to fetch quote vault balance: %w", err)
	}

	slot := base.Slot
	if quote.Slot < slot {
		slot = quote.Slot
	}

	return ReserveSnapshot{
		Base:  base.Amount,
		Quote: quote.Amount,
		Slot:  slot,
	}, nil
}
