// Package config loads the daystake CLI configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's wiring: where state lives and which identities
// hold the standing roles.
type Config struct {
	// LedgerPath is the SQLite challenge database.
	LedgerPath string `yaml:"ledger_path"`

	// AuditPath is the append-only JSONL transition log.
	AuditPath string `yaml:"audit_path"`

	// VaultPath is the simulated asset vault state file.
	VaultPath string `yaml:"vault_path"`

	// Admin may rotate the attester.
	Admin string `yaml:"admin"`

	// Attester records day completions.
	Attester string `yaml:"attester"`
}

// Default returns a configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		LedgerPath: filepath.Join(dir, "ledger.db"),
		AuditPath:  filepath.Join(dir, "audit.jsonl"),
		VaultPath:  filepath.Join(dir, "vault.json"),
		Admin:      "admin",
		Attester:   "attester",
	}
}

// Load reads a configuration file. Fields left empty fall back to the
// defaults rooted at the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default(filepath.Dir(path))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path. The set-attester command uses
// this to persist a rotation.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
