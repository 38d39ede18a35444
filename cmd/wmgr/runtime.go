package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/config"
	"github.com/aman-zulfiqar/wmgr/internal/metrics"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/aman-zulfiqar/wmgr/internal/swapengine"
	"github.com/aman-zulfiqar/wmgr/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const runtimeKey = "wmgr.runtime"

// runtime is the per-invocation state built in Before.
type runtime struct {
	cfg          *config.Config
	settings     *config.Settings
	settingsPath string
	logger       *logrus.Logger
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
}

// setup builds the logger and loads the environment config and the .wmgr
// settings.
func setup(c *cli.Context) error {
	logger := logrus.New()
	logger.SetOutput(c.App.ErrWriter)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", c.String("log-level"))
	}
	logger.SetLevel(level)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	path := config.SettingsPath(wd)
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	c.App.Metadata = map[string]interface{}{
		runtimeKey: &runtime{
			cfg:          config.Load(),
			settings:     settings,
			settingsPath: path,
			logger:       logger,
			registry:     registry,
			metrics:      metrics.NewMetrics(registry),
		},
	}
	return nil
}

func getRuntime(c *cli.Context) *runtime {
	return c.App.Metadata[runtimeKey].(*runtime)
}

// cluster resolves --cluster and --rpc against the settings file.
func (r *runtime) cluster(c *cli.Context) (config.Cluster, error) {
	return config.ResolveCluster(
		config.FirstNonEmpty(c.String("cluster"), r.settings.Cluster, config.DefaultCluster),
		config.FirstNonEmpty(c.String("rpc"), r.settings.RPC),
	)
}

func (r *runtime) commitment(c *cli.Context) (rpc.Commitment, error) {
	return rpc.ParseCommitment(config.FirstNonEmpty(c.String("commitment"), r.settings.Commitment, string(rpc.CommitmentConfirmed)))
}

// slippage resolves the per-command --slippage flag.
func (r *runtime) slippage(c *cli.Context) (decimal.Decimal, error) {
	s := config.FirstNonEmpty(c.String("slippage"), r.settings.Slippage)
	if s == "" {
		return amm.DefaultSlippage, nil
	}
	return amm.ParseSlippage(s)
}

// signer loads the keypair from --keyfile (or the settings file), falling
// back to WALLET_PRIVATE_KEY.
func (r *runtime) signer(c *cli.Context) (*wallet.Signer, error) {
	keyfile := config.FirstNonEmpty(c.String("keyfile"), r.settings.Keyfile)
	if keyfile != "" {
		return wallet.LoadSigner(wallet.KeySource{Keyfile: expandHome(keyfile)})
	}
	return wallet.LoadSigner(wallet.KeySource{PrivateKey: r.cfg.PrivateKey})
}

// engine builds a swap engine for the resolved cluster and prints the
// "Using cluster" banner.
func (r *runtime) engine(c *cli.Context) (*swapengine.Engine, error) {
	cluster, err := r.cluster(c)
	if err != nil {
		return nil, err
	}
	commitment, err := r.commitment(c)
	if err != nil {
		return nil, err
	}

	cfg := swapengine.NewEngineConfig(r.cfg, cluster, commitment)
	cfg.PoolConfigPath = config.FirstNonEmpty(c.String("pools"), r.settings.PoolConfig, r.cfg.PoolConfigPath)
	cfg.Metrics = r.metrics
	cfg.Logger = r.logger

	e, err := swapengine.NewEngine(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.App.Writer, "Using cluster: %s, RPC: %s\n", cluster.Name, cluster.RPCURL)
	return e, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// closeEngine logs close errors; they never change a command's result.
func (r *runtime) closeEngine(e *swapengine.Engine) {
	if err := e.Close(); err != nil {
		r.logger.WithError(err).Warn("engine close")
	}
}
