package main

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/wmgr/internal/config"
	"github.com/urfave/cli/v2"
)

func configCommands() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change the defaults stored in " + config.SettingsFileName,
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the stored defaults",
				Action: func(c *cli.Context) error {
					getRuntime(c).settings.Show(c.App.Writer)
					return nil
				},
			},
			configSetCommand(),
			{
				Name:  "reset",
				Usage: "Remove " + config.SettingsFileName,
				Action: func(c *cli.Context) error {
					rt := getRuntime(c)
					if err := config.ResetSettings(rt.settingsPath); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "OK: reset %s\n", config.SettingsFileName)
					return nil
				},
			},
		},
	}
}

func configSetCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Store one or more defaults",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cluster", Usage: "Default cluster"},
			&cli.StringFlag{Name: "rpc", Usage: "Default RPC URL"},
			&cli.StringFlag{Name: "commitment", Usage: "Default commitment"},
			&cli.StringFlag{Name: "slippage", Usage: "Default slippage percent"},
			&cli.StringFlag{Name: "keyfile", Usage: "Default keypair file"},
			&cli.StringFlag{Name: "pools", Usage: "Default pool definitions file"},
		},
		Action: func(c *cli.Context) error {
			update := config.Settings{
				Cluster:    c.String("cluster"),
				RPC:        c.String("rpc"),
				Commitment: c.String("commitment"),
				Slippage:   c.String("slippage"),
				Keyfile:    c.String("keyfile"),
				PoolConfig: c.String("pools"),
			}
			if update == (config.Settings{}) {
				return errors.New("nothing to set (see wmgr config set --help)")
			}

			rt := getRuntime(c)
			s := *rt.settings
			s.Merge(update)
			if err := s.Save(rt.settingsPath); err != nil {
				return err
			}
			*rt.settings = s

			fmt.Fprintf(c.App.Writer, "OK: saved %s\n", config.SettingsFileName)
			return nil
		},
	}
}
