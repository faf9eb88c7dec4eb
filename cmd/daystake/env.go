package main

import (
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/daystake/go-daystake/audit"
	"github.com/daystake/go-daystake/config"
	"github.com/daystake/go-daystake/escrow"
	"github.com/daystake/go-daystake/gateway"
	"github.com/daystake/go-daystake/ledger"
)

// app bundles the engine and its collaborators for one CLI invocation.
type app struct {
	cfg        config.Config
	configPath string
	engine     *escrow.Engine
	store      *ledger.SQLite
	auditLog   *audit.JSONL
	vault      *gateway.Vault
}

// newApp wires the engine from the config file: SQLite ledger, JSONL audit
// log, and the simulated vault gateway.
func newApp(configPath string) (*app, error) {
	cfg := config.Default(".")
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	store, err := ledger.OpenSQLite(cfg.LedgerPath)
	if err != nil {
		return nil, err
	}

	auditLog, err := audit.OpenJSONL(cfg.AuditPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	vault, err := gateway.LoadVault(cfg.VaultPath)
	if err != nil {
		store.Close()
		auditLog.Close()
		return nil, err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	engine := escrow.NewEngine(store, vault,
		escrow.Address(cfg.Admin), escrow.Address(cfg.Attester)).
		WithLogger(log).
		WithRecorder(auditLog)

	return &app{
		cfg:        cfg,
		configPath: configPath,
		engine:     engine,
		store:      store,
		auditLog:   auditLog,
		vault:      vault,
	}, nil
}

// close persists the vault and releases resources.
func (a *app) close() error {
	var firstErr error
	if err := a.vault.Save(a.cfg.VaultPath); err != nil {
		firstErr = err
	}
	if err := a.auditLog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// addr converts a flag value to an escrow address.
func addr(s string) escrow.Address { return escrow.Address(s) }

// parseAmount parses a decimal asset amount.
func parseAmount(s string) (*uint256.Int, error) {
	v := new(uint256.Int)
	if err := v.SetFromDecimal(s); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
