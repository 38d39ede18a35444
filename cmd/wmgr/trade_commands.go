package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/urfave/cli/v2"
)

var slippageFlag = &cli.StringFlag{
	Name:    "slippage",
	Aliases: []string{"s"},
	Usage:   "Slippage tolerance in percent (default 0.1)",
	EnvVars: []string{"WMGR_SLIPPAGE"},
}

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:      "price",
		Usage:     "Show the Raydium SOL/USDC pool price",
		ArgsUsage: "sol|usdc",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: wmgr price sol|usdc")
			}
			token, err := swapengine.ParseToken(c.Args().First())
			if err != nil {
				return err
			}

			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			p, err := e.Price(c.Context, token)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Price: %.8f %s per %s\n", p.OtherPerToken, p.Other.Symbol(), p.Token.Symbol())
			fmt.Fprintf(w, "Inverse: %.8f %s per %s\n", p.TokenPerOther, p.Token.Symbol(), p.Other.Symbol())
			return nil
		},
	}
}

// tradeRequest builds a request from AMOUNT, TOKEN and the slippage flag.
func tradeRequest(c *cli.Context, side swapengine.Side, amount, tokenArg string) (swapengine.TradeRequest, error) {
	token, err := swapengine.ParseToken(tokenArg)
	if err != nil {
		return swapengine.TradeRequest{}, err
	}
	slippage, err := getRuntime(c).slippage(c)
	if err != nil {
		return swapengine.TradeRequest{}, err
	}
	return swapengine.TradeRequest{
		Side:     side,
		Token:    token,
		Amount:   amount,
		Slippage: slippage,
	}, nil
}

func tradeCommand(side swapengine.Side) *cli.Command {
	usage := "Sell an exact AMOUNT of TOKEN for the other token"
	if side == swapengine.SideBuy {
		usage = "Buy an exact AMOUNT of TOKEN with the other token"
	}

	return &cli.Command{
		Name:      string(side),
		Usage:     usage,
		ArgsUsage: "AMOUNT sol|usdc",
		Flags:     []cli.Flag{slippageFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: wmgr %s AMOUNT sol|usdc", side)
			}
			req, err := tradeRequest(c, side, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}

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

			out := c.App.Writer
			confirmer := &swapengine.PromptConfirmer{In: c.App.Reader, Out: out, Prompt: c.App.ErrWriter}
			observer := func(s swapengine.State) {
				switch s {
				case swapengine.StateSimulate:
					fmt.Fprintln(out, "Simulating swap...")
				case swapengine.StateConfirm:
					fmt.Fprintln(out, "Simulation: ok")
				}
			}

			res, err := e.Orchestrator(signer, confirmer, observer).Execute(c.Context, req)
			if err != nil {
				if res != nil && res.Abort != nil {
					for _, l := range res.Abort.Logs {
						fmt.Fprintln(out, l)
					}
				}
				if res != nil && !res.Signature.IsZero() {
					fmt.Fprintf(out, "Submitted but not confirmed. Signature: %s\n", res.Signature)
				}
				return err
			}

			if !res.Done() {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
			fmt.Fprintf(out, "SUCCESS: Swap signature: %s\n", res.Signature)
			return nil
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "Preview a buy or sell without signing anything",
		ArgsUsage: "buy|sell AMOUNT sol|usdc",
		Flags:     []cli.Flag{slippageFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return errors.New("usage: wmgr quote buy|sell AMOUNT sol|usdc")
			}
			side, err := swapengine.ParseSide(c.Args().Get(0))
			if err != nil {
				return err
			}
			req, err := tradeRequest(c, side, c.Args().Get(1), c.Args().Get(2))
			if err != nil {
				return err
			}

			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			p, err := e.Quote(c.Context, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Pool: %s (slot %d)\n", p.Pool, p.Reserves.Slot)
			p.Summary.Print(c.App.Writer)
			return nil
		},
	}
}

func poolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "pools",
		Usage: "List configured Raydium pools",
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tBASE\tQUOTE\tACTIVE")
			for _, p := range e.Pools() {
				active := ""
				if p.ID.Equals(e.Pool().ID) {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.ID, p.BaseMint.Address, p.QuoteMint.Address, active)
			}
			return tw.Flush()
		},
	}
}
