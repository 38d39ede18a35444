package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "wmgr",
		Usage: "Solana wallet manager: balances, transfers and SOL/USDC swaps on Raydium",
		Description: `Settings are resolved as flag > environment > .wmgr in the working
directory > built-in default. Use "wmgr config set" to persist defaults.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Before:  setup,
		Commands: []*cli.Command{
			balanceCommand(),
			sendCommands(),
			priceCommand(),
			tradeCommand(swapengine.SideBuy),
			tradeCommand(swapengine.SideSell),
			quoteCommand(),
			poolsCommand(),
			tradesCommands(),
			configCommands(),
			selfHashCommand(),
			serveCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cluster",
				Aliases: []string{"c"},
				Usage:   "Solana cluster (mainnet-beta, devnet, testnet, localnet)",
				EnvVars: []string{"WMGR_CLUSTER"},
			},
			&cli.StringFlag{
				Name:    "rpc",
				Usage:   "RPC URL, overrides the cluster default",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "commitment",
				Usage:   "Commitment for reads and confirmation (processed, confirmed, finalized)",
				EnvVars: []string{"WMGR_COMMITMENT"},
			},
			&cli.StringFlag{
				Name:    "keyfile",
				Aliases: []string{"k"},
				Usage:   "Path to a JSON keypair file; WALLET_PRIVATE_KEY is used when unset",
				EnvVars: []string{"WMGR_KEYFILE"},
			},
			&cli.StringFlag{
				Name:    "pools",
				Usage:   "JSON file with extra Raydium pool definitions",
				EnvVars: []string{"POOL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"WMGR_LOG_LEVEL"},
				Value:   "warn",
			},
		},
	}
}

func main() {
	// .env is loaded before flags read their EnvVars; a missing file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
