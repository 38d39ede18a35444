package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs wmgr in the current directory and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"wmgr"}, args...))
	return out.String(), err
}

// clearEnv unsets the flag environment variables for the test. An empty
// but present variable still counts as set for urfave/cli.
func clearEnv(t *testing.T) {
	for _, k := range []string{"WMGR_CLUSTER", "SOLANA_RPC_URL", "WMGR_COMMITMENT", "WMGR_KEYFILE", "WMGR_SLIPPAGE", "POOL_CONFIG", "WMGR_LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestConfigSetShowReset(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := runApp(t, "config", "set", "--cluster", "devnet", "--slippage", "0.5")
	require.NoError(t, err)
	assert.Equal(t, "OK: saved .wmgr\n", out)

	s, err := config.LoadSettings(filepath.Join(dir, config.SettingsFileName))
	require.NoError(t, err)
	assert.Equal(t, "devnet", s.Cluster)
	assert.Equal(t, "0.5", s.Slippage)

	out, err = runApp(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "--cluster:     devnet\n")
	assert.Contains(t, out, "--slippage:    0.5\n")
	assert.Contains(t, out, "--rpc:         (not set)\n")

	out, err = runApp(t, "config", "reset")
	require.NoError(t, err)
	assert.Equal(t, "OK: reset .wmgr\n", out)
	assert.NoFileExists(t, filepath.Join(dir, config.SettingsFileName))
}

func TestConfigSet_Rejects(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := runApp(t, "config", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to set")

	_, err = runApp(t, "config", "set", "--cluster", "moonnet")
	require.Error(t, err)

	_, err = runApp(t, "config", "set", "--commitment", "max")
	require.Error(t, err)
	assert.NoFileExists(t, config.SettingsFileName)
}

func TestSelfHash(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := runApp(t, "self-hash")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "wmgr:", lines[0])
	assert.Regexp(t, `^app:           [0-9a-f]{64}$`, lines[1])
	assert.Equal(t, "config(.wmgr): (not found)", lines[2])

	data := []byte(`{"cluster":"devnet"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SettingsFileName), data, 0o600))
	sum := sha256.Sum256(data)

	out, err = runApp(t, "self-hash")
	require.NoError(t, err)
	assert.Contains(t, out, "config(.wmgr): "+hex.EncodeToString(sum[:])+"\n")
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	got, err := hashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = hashFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// runProbe runs a throwaway subcommand so the runtime helpers see parsed
// flags. env entries are KEY=VALUE pairs applied after the environment is
// cleared.
func runProbe(t *testing.T, settings config.Settings, global, local []string, fn func(c *cli.Context, rt *runtime), env ...string) {
	t.Helper()
	clearEnv(t)
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		t.Setenv(k, v)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	if settings != (config.Settings{}) {
		require.NoError(t, settings.Save(config.SettingsPath(dir)))
	}

	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "probe",
		Flags: []cli.Flag{slippageFlag},
		Action: func(c *cli.Context) error {
			fn(c, getRuntime(c))
			return nil
		},
	})

	args := append([]string{"wmgr"}, global...)
	args = append(args, "probe")
	args = append(args, local...)
	require.NoError(t, app.Run(args))
}

func TestResolvePrecedence(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		runProbe(t, config.Settings{}, nil, nil, func(c *cli.Context, rt *runtime) {
			cl, err := rt.cluster(c)
			require.NoError(t, err)
			assert.Equal(t, config.DefaultCluster, cl.Name)

			slip, err := rt.slippage(c)
			require.NoError(t, err)
			assert.True(t, amm.DefaultSlippage.Equal(slip))
		})
	})

	t.Run("settings", func(t *testing.T) {
		runProbe(t, config.Settings{Cluster: "devnet", Slippage: "2"}, nil, nil, func(c *cli.Context, rt *runtime) {
			cl, err := rt.cluster(c)
			require.NoError(t, err)
			assert.Equal(t, "devnet", cl.Name)

			slip, err := rt.slippage(c)
			require.NoError(t, err)
			assert.Equal(t, "2", slip.String())
		})
	})

	t.Run("flags win", func(t *testing.T) {
		runProbe(t, config.Settings{Cluster: "devnet", Slippage: "2"},
			[]string{"--cluster", "testnet", "--rpc", "http://localhost:8899"},
			[]string{"--slippage", "0.3"},
			func(c *cli.Context, rt *runtime) {
				cl, err := rt.cluster(c)
				require.NoError(t, err)
				assert.Equal(t, "testnet", cl.Name)
				assert.Equal(t, "http://localhost:8899", cl.RPCURL)

				slip, err := rt.slippage(c)
				require.NoError(t, err)
				assert.Equal(t, "0.3", slip.String())
			})
	})

	t.Run("env", func(t *testing.T) {
		runProbe(t, config.Settings{Cluster: "devnet"}, nil, nil, func(c *cli.Context, rt *runtime) {
			cl, err := rt.cluster(c)
			require.NoError(t, err)
			assert.Equal(t, "testnet", cl.Name)
		}, "WMGR_CLUSTER=testnet")
	})
}
