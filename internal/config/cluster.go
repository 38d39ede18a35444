package config

import (
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/gagliardetto/solana-go"
)

const DefaultCluster = "mainnet-beta"

// Cluster is a resolved Solana cluster.
type Cluster struct {
	Name     string
	RPCURL   string
	USDCMint solana.PublicKey
}

type clusterDefaults struct {
	rpc  string
	usdc solana.PublicKey
}

var clusters = map[string]clusterDefaults{
	"mainnet-beta": {"https://api.mainnet-beta.solana.com", spl.USDCMainnet},
	"devnet":       {"https://api.devnet.solana.com", spl.USDCDevnet},
	"testnet":      {"https://api.testnet.solana.com", spl.USDCDevnet},
	"localnet":     {"http://127.0.0.1:8899", spl.USDCMainnet},
}

// ResolveCluster looks up name and applies rpcOverride when non-empty.
func ResolveCluster(name, rpcOverride string) (Cluster, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		key = DefaultCluster
	}
	d, ok := clusters[key]
	if !ok {
		return Cluster{}, fmt.Errorf("unknown cluster: %s", name)
	}

	url := d.rpc
	if rpcOverride != "" {
		url = rpcOverride
	}
	return Cluster{Name: key, RPCURL: url, USDCMint: d.usdc}, nil
}
