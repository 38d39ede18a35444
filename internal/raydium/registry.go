package raydium

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/gagliardetto/solana-go"
)

var ErrPoolNotFound = errors.New("pool not found")

// SOLUSDCPoolID is the Raydium AMM v4 SOL/USDC pool on mainnet-beta.
const SOLUSDCPoolID = "58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"

// PoolConfig is one pool entry in a JSON pool file.
type PoolConfig struct {
	Name             string `json:"name"`
	ProgramID        string `json:"program_id,omitempty"`
	ID               string `json:"id"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"open_orders"`
	BaseVault        string `json:"base_vault"`
	QuoteVault       string `json:"quote_vault"`
	BaseMint         string `json:"base_mint"`
	BaseDecimals     uint8  `json:"base_decimals"`
	QuoteMint        string `json:"quote_mint"`
	QuoteDecimals    uint8  `json:"quote_decimals"`
	MarketProgramID  string `json:"market_program_id"`
	MarketID         string `json:"market_id"`
	MarketAuthority  string `json:"market_authority"`
	MarketBaseVault  string `json:"market_base_vault"`
	MarketQuoteVault string `json:"market_quote_vault"`
	MarketBids       string `json:"market_bids"`
	MarketAsks       string `json:"market_asks"`
	MarketEventQueue string `json:"market_event_queue"`
}

// DefaultPools returns the built-in pool set.
func DefaultPools() []PoolConfig {
	return []PoolConfig{
		{
			Name:             "SOL/USDC",
			ProgramID:        AmmV4ProgramID.String(),
			ID:               SOLUSDCPoolID,
			Authority:        "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1",
			OpenOrders:       "HmiHHzq4Fym9e1D4qzLS6LDDM3tNsCTBPDWHTLZ763jY",
			BaseVault:        "DQyrAcCrDXQ7NeoqGgDCZwBvWDcYmFCjSb9JtteuvPpz",
			QuoteVault:       "HLmqeL62xR1QoZ1HKKbXRrdN1p3phKpxRMb2VVopvBBz",
			BaseMint:         spl.NativeMint.String(),
			BaseDecimals:     spl.SOLDecimals,
			QuoteMint:        spl.USDCMainnet.String(),
			QuoteDecimals:    spl.USDCDecimals,
			MarketProgramID:  "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX",
			MarketID:         "8BnEgHoWFysVcuFFX7QztDmzuH8r5ZFvyP3sYwn1XTh6",
			MarketAuthority:  "CTz5UMLQm2SRWHzQnU62Pi4yJqbNGjgRBHqqp6oDHfF7",
			MarketBaseVault:  "CKxTHwM9fPMRRvZmFnFoqKNd9pQR21c5Aq9bh5h9oghX",
			MarketQuoteVault: "6A5NHCj1yF6urc9wZNe6Bcjj4LVszQNj5DwAWG97yzMu",
			MarketBids:       "5jWUncPNBMZJ3sTHKmMLszypVkoRK6bfEQMQUHweeQnh",
			MarketAsks:       "EaXdHx7x3mdGA38j5RSmKYSXMzAFzzUXCLNBEDXDn1d5",
			MarketEventQueue: "8CvwxZ9Db6XbLD46NZwwmVDZZRDy7eydFcAGkXKh9axa",
		},
	}
}

// Registry holds the configured pools.
type Registry struct {
	pools []Pool
}

// NewRegistry parses the built-in pools, followed by any pools in
// configPath when it is non-empty. A pool in the file replaces a built-in
// pool with the same ID.
func NewRegistry(configPath string) (*Registry, error) {
	configs := DefaultPools()
	if configPath != "" {
		extra, err := LoadPoolConfigs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pools: %w", err)
		}
		configs = mergeConfigs(configs, extra)
	}
	return NewRegistryFromConfigs(configs)
}

func NewRegistryFromConfigs(configs []PoolConfig) (*Registry, error) {
	pools := make([]Pool, 0, len(configs))
	for i, cfg := range configs {
		pool, err := parsePoolConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		pools = append(pools, pool)
	}
	return &Registry{pools: pools}, nil
}

// LoadPoolConfigs reads a JSON array of PoolConfig.
func LoadPoolConfigs(path string) ([]PoolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configs []PoolConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return configs, nil
}

func mergeConfigs(base, extra []PoolConfig) []PoolConfig {
	out := make([]PoolConfig, 0, len(base)+len(extra))
	for _, b := range base {
		replaced := false
		for _, e := range extra {
			if e.ID == b.ID {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, b)
		}
	}
	return append(out, extra...)
}

type poolField struct {
	label string
	value string
	dst   *solana.PublicKey
}

// parsePoolConfig converts a config entry into a Pool, validating every key.
func parsePoolConfig(cfg PoolConfig) (Pool, error) {
	if cfg.ProgramID == "" {
		cfg.ProgramID = AmmV4ProgramID.String()
	}

	var pool Pool
	fields := []poolField{
		{"program id", cfg.ProgramID, &pool.ProgramID},
		{"amm id", cfg.ID, &pool.ID},
		{"amm authority", cfg.Authority, &pool.Authority},
		{"amm open orders", cfg.OpenOrders, &pool.OpenOrders},
		{"amm base vault", cfg.BaseVault, &pool.BaseVault},
		{"amm quote vault", cfg.QuoteVault, &pool.QuoteVault},
		{"base mint", cfg.BaseMint, &pool.BaseMint.Address},
		{"quote mint", cfg.QuoteMint, &pool.QuoteMint.Address},
		{"market program", cfg.MarketProgramID, &pool.MarketProgramID},
		{"market id", cfg.MarketID, &pool.MarketID},
		{"market authority", cfg.MarketAuthority, &pool.MarketAuthority},
		{"market base vault", cfg.MarketBaseVault, &pool.MarketBaseVault},
		{"market quote vault", cfg.MarketQuoteVault, &pool.MarketQuoteVault},
		{"market bids", cfg.MarketBids, &pool.MarketBids},
		{"market asks", cfg.MarketAsks, &pool.MarketAsks},
		{"market event queue", cfg.MarketEventQueue, &pool.MarketEventQueue},
	}

	for _, f := range fields {
		pk, err := spl.ParseAddress(f.label, f.value)
		if err != nil {
			return Pool{}, err
		}
		*f.dst = pk
	}

	if pool.BaseMint.Address.Equals(pool.QuoteMint.Address) {
		return Pool{}, fmt.Errorf("base and quote mint are both %s", pool.BaseMint.Address)
	}

	pool.Name = cfg.Name
	pool.BaseMint.Decimals = cfg.BaseDecimals
	pool.QuoteMint.Decimals = cfg.QuoteDecimals
	return pool, nil
}

// FindByID returns the pool with the given AMM id.
func (r *Registry) FindByID(id solana.PublicKey) (*Pool, error) {
	for i := range r.pools {
		if r.pools[i].ID.Equals(id) {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
}

// FindByMints searches for a pool trading the given pair in either order.
func (r *Registry) FindByMints(mintA, mintB solana.PublicKey) (*Pool, error) {
	for i := range r.pools {
		if r.pools[i].MintsMatch(mintA, mintB) {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("%w: mints %s / %s", ErrPoolNotFound, mintA, mintB)
}

func (r *Registry) FindByName(name string) (*Pool, error) {
	for i := range r.pools {
		if r.pools[i].Name == name {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, name)
}

func (r *Registry) All() []Pool {
	return r.pools
}
