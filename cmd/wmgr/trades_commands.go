package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/urfave/cli/v2"
)

func tradesCommands() *cli.Command {
	return &cli.Command{
		Name:  "trades",
		Usage: "Read the trade journal (requires REDIS_ADDR)",
		Subcommands: []*cli.Command{
			tradesRecentCommand(),
			tradesWatchCommand(),
		},
	}
}

func tradesRecentCommand() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List the most recent trades, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of trades"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			trades, err := e.RecentTrades(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(trades)
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSIDE\tIN\tOUT\tSIGNATURE")
			for _, t := range trades {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					t.Timestamp.Local().Format(time.DateTime), t.Side,
					describeAmount(t.AmountIn, t.TokenIn),
					describeAmount(t.AmountOut, t.TokenOut),
					t.Signature)
			}
			return tw.Flush()
		},
	}
}

func tradesWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream trades as they are recorded (one JSON object per line)",
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			r := e.Redis()
			if r == nil {
				return swapengine.ErrJournalDisabled
			}

			enc := json.NewEncoder(c.App.Writer)
			err = r.Subscribe(c.Context, func(t *models.TradeEvent) {
				if err := enc.Encode(t); err != nil {
					rt.logger.WithError(err).Warn("failed to write trade")
				}
			})
			if errors.Is(err, c.Context.Err()) {
				return nil
			}
			return err
		},
	}
}

// describeAmount formats a raw amount of SOL or USDC.
func describeAmount(raw uint64, symbol string) string {
	decimals := uint8(6)
	if symbol == swapengine.TokenSOL.Symbol() {
		decimals = 9
	}
	return amount.Format(raw, decimals) + " " + symbol
}
