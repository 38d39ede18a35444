package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/server"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the read-only quote and price HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from API_ADDR, else :8080)",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Include error details in responses",
			},
		},
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)
			e, err := rt.engine(c)
			if err != nil {
				return err
			}
			defer rt.closeEngine(e)

			rt.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			addr := c.String("addr")
			if addr == "" {
				addr = rt.cfg.APIAddr
			}

			srv, err := server.NewServer(server.ServerDeps{
				Handlers: &server.Handlers{
					Service: e,
					Cluster: e.Cluster().Name,
					Pool:    e.Pool().Name,
					DevMode: c.Bool("dev"),
					Logger:  rt.logger,
				},
				Config: server.ServerConfig{
					Addr:      addr,
					DevMode:   c.Bool("dev"),
					APIKey:    rt.cfg.APIKey,
					QuoteRate: rt.cfg.APIRateLimit,
					Gatherer:  rt.registry,
				},
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				rt.logger.WithFields(logrus.Fields{
					"addr":    addr,
					"cluster": e.Cluster().Name,
				}).Info("api server listening")
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-c.Context.Done():
				rt.logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return srv.WaitClosed(shutdownCtx)
		},
	}
}
