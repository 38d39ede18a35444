package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/aman-zulfiqar/wmgr/internal/config"
	"github.com/urfave/cli/v2"
)

const notFound = "(not found)"

func selfHashCommand() *cli.Command {
	return &cli.Command{
		Name:  "self-hash",
		Usage: "Print SHA-256 hashes of this executable and " + config.SettingsFileName,
		Action: func(c *cli.Context) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to resolve current executable path: %w", err)
			}
			appHash, err := hashFile(exe)
			if err != nil {
				return fmt.Errorf("failed to hash wmgr executable: %w", err)
			}

			cfgHash, err := hashFile(getRuntime(c).settingsPath)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				cfgHash = notFound
			case err != nil:
				return fmt.Errorf("failed to hash %s: %w", config.SettingsFileName, err)
			}

			w := c.App.Writer
			fmt.Fprintln(w, "wmgr:")
			fmt.Fprintf(w, "%-15s%s\n", "app:", appHash)
			fmt.Fprintf(w, "%-15s%s\n", "config("+config.SettingsFileName+"):", cfgHash)
			return nil
		},
	}
}

// hashFile returns the hex SHA-256 of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
