package main

import (
	"fmt"

	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/aman-zulfiqar/wmgr/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show SOL and USDC balances",
		ArgsUsage: "[ADDRESS]",
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)

			var owner solana.PublicKey
			if c.NArg() > 0 {
				pk, err := spl.ParseAddress("address", c.Args().First())
				if err != nil {
					return err
				}
				owner = pk
			} else {
				signer, err := rt.signer(c)
				if err != nil {
					return err
				}
				owner = signer.PublicKey()
			}

			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			b, err := wallet.FetchBalances(c.Context, e.RPC(), owner, e.Cluster().USDCMint)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Address: %s\n", b.Address)
			fmt.Fprintf(w, "SOL: %s\n", b.SOL)
			fmt.Fprintf(w, "USDC: %s\n", b.USDC)
			return nil
		},
	}
}

func sendCommands() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Transfer SOL or USDC",
		Subcommands: []*cli.Command{
			{
				Name:      "sol",
				Usage:     "Send SOL",
				ArgsUsage: "TO AMOUNT",
				Action:    sendAction("SOL"),
			},
			{
				Name:      "usdc",
				Usage:     "Send USDC; creates the recipient's token account if needed",
				ArgsUsage: "TO AMOUNT",
				Action:    sendAction("USDC"),
			},
		},
	}
}

func sendAction(symbol string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("usage: wmgr send %s TO AMOUNT", c.Command.Name)
		}
		to, amount := c.Args().Get(0), c.Args().Get(1)

		rt := getRuntime(c)
		signer, err := rt.signer(c)
		if err != nil {
			return err
		}

		e, err := rt.engine(c)
		if err != nil {
			return err
		}
		defer rt.closeEngine(e)

		w := e.Wallet(signer)

		var sig solana.Signature
		if symbol == "SOL" {
			sig, err = w.SendSOL(c.Context, to, amount)
		} else {
			sig, err = w.SendToken(c.Context, to, e.Cluster().USDCMint, amount)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "SUCCESS: %s sent. Signature: %s\n", symbol, sig)
		return nil
	}
}
