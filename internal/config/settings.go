package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
)

// SettingsFileName is the per-directory settings file.
const SettingsFileName = ".wmgr"

const notSet = "(not set)"

// Settings are the user defaults persisted by `wmgr config set`. Empty
// fields fall through to the built-in defaults.
type Settings struct {
	Cluster    string `json:"cluster,omitempty"`
	RPC        string `json:"rpc,omitempty"`
	Commitment string `json:"commitment,omitempty"`
	Slippage   string `json:"slippage,omitempty"`
	Keyfile    string `json:"keyfile,omitempty"`
	PoolConfig string `json:"pool_config,omitempty"`
}

// SettingsPath returns the settings file location in dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, SettingsFileName)
}

// LoadSettings reads the settings file at path. A missing or unreadable file
// yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SettingsFileName, err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return &Settings{}, nil
	}
	return &s, nil
}

// Validate checks the fields that have a fixed domain.
func (s *Settings) Validate() error {
	if s.Cluster != "" {
		if _, err := ResolveCluster(s.Cluster, ""); err != nil {
			return err
		}
	}
	if s.Commitment != "" {
		switch s.Commitment {
		case "processed", "confirmed", "finalized":
		default:
			return fmt.Errorf("invalid commitment %q", s.Commitment)
		}
	}
	if s.Slippage != "" {
		if _, err := amm.ParseSlippage(s.Slippage); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the settings atomically through a temporary file.
func (s *Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), SettingsFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", SettingsFileName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", SettingsFileName, err)
	}
	return nil
}

// ResetSettings removes the settings file. A missing file is not an error.
func ResetSettings(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", SettingsFileName, err)
	}
	return nil
}

// Show prints the effective settings.
func (s *Settings) Show(w io.Writer) {
	fmt.Fprintf(w, "config_file: %s\n\n", SettingsFileName)
	fmt.Fprintln(w, "solana:")
	fmt.Fprintf(w, "%-15s%s\n", "--cluster:", orDefault(s.Cluster, DefaultCluster))
	fmt.Fprintf(w, "%-15s%s\n", "--rpc:", orDefault(s.RPC, notSet))
	fmt.Fprintf(w, "%-15s%s\n", "--commitment:", orDefault(s.Commitment, "confirmed"))
	fmt.Fprintf(w, "%-15s%s\n", "--slippage:", orDefault(s.Slippage, amm.DefaultSlippage.String()))
	fmt.Fprintf(w, "%-15s%s\n", "--keyfile:", orDefault(s.Keyfile, notSet))
	fmt.Fprintf(w, "%-15s%s\n", "--pools:", orDefault(s.PoolConfig, notSet))
}

// Merge overwrites fields of s with the non-empty fields of other.
func (s *Settings) Merge(other Settings) {
	if other.Cluster != "" {
		s.Cluster = other.Cluster
	}
	if other.RPC != "" {
		s.RPC = other.RPC
	}
	if other.Commitment != "" {
		s.Commitment = other.Commitment
	}
	if other.Slippage != "" {
		s.Slippage = other.Slippage
	}
	if other.Keyfile != "" {
		s.Keyfile = other.Keyfile
	}
	if other.PoolConfig != "" {
		s.PoolConfig = other.PoolConfig
	}
}

// FirstNonEmpty returns the first non-empty value.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
