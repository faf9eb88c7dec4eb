// Package gateway provides asset transfer gateways for the escrow engine.
// The in-memory Vault models external party balances plus the engine's
// custody balance, and is the gateway used by the CLI and examples.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/holiman/uint256"

	"github.com/daystake/go-daystake/escrow"
)

var (
	// ErrInsufficientFunds is returned by PullIn when the party's balance
	// does not cover the amount.
	ErrInsufficientFunds = errors.New("gateway: insufficient funds")

	// ErrInsufficientCustody is returned by PayOut when the custody
	// balance does not cover the amount. Seeing this means the engine has
	// promised more than it holds, which the engine's invariants forbid.
	ErrInsufficientCustody = errors.New("gateway: insufficient custody balance")
)

// Vault tracks party balances and the custody balance. PullIn moves value
// from a party into custody, PayOut from custody to a party; both are
// atomic with respect to other vault operations.
type Vault struct {
	mu       sync.RWMutex
	balances map[escrow.Address]*uint256.Int
	custody  *uint256.Int
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[escrow.Address]*uint256.Int),
		custody:  uint256.NewInt(0),
	}
}

// Credit adds amount to a party's balance. Used to fund accounts in
// simulations and tests.
func (v *Vault) Credit(addr escrow.Address, amount *uint256.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance(addr).Add(v.balance(addr), amount)
}

// Balance returns a copy of a party's balance.
func (v *Vault) Balance(addr escrow.Address) *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if b, ok := v.balances[addr]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// Custody returns a copy of the custody balance.
func (v *Vault) Custody() *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.custody.Clone()
}

// PullIn moves amount from a party into custody.
func (v *Vault) PullIn(ctx context.Context, from escrow.Address, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	b := v.balance(from)
	if b.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, b.Dec(), amount.Dec())
	}
	b.Sub(b, amount)
	v.custody.Add(v.custody, amount)
	return nil
}

// PayOut moves amount from custody to a party.
func (v *Vault) PayOut(ctx context.Context, to escrow.Address, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.custody.Cmp(amount) < 0 {
		return fmt.Errorf("%w: custody has %s, needs %s", ErrInsufficientCustody, v.custody.Dec(), amount.Dec())
	}
	v.custody.Sub(v.custody, amount)
	b := v.balance(to)
	b.Add(b, amount)
	return nil
}

// balance returns the live balance entry for addr, creating it at zero.
// Callers must hold v.mu.
func (v *Vault) balance(addr escrow.Address) *uint256.Int {
	b, ok := v.balances[addr]
	if !ok {
		b = uint256.NewInt(0)
		v.balances[addr] = b
	}
	return b
}

var _ escrow.Gateway = (*Vault)(nil)

// vaultFile is the on-disk JSON shape used by Save and LoadVault.
type vaultFile struct {
	Custody  string            `json:"custody"`
	Balances map[string]string `json:"balances"`
}

// Save writes the vault state to path as JSON.
func (v *Vault) Save(path string) error {
	v.mu.RLock()
	file := vaultFile{
		Custody:  v.custody.Dec(),
		Balances: make(map[string]string, len(v.balances)),
	}
	for addr, b := range v.balances {
		file.Balances[string(addr)] = b.Dec()
	}
	v.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("gateway: encoding vault: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gateway: writing vault: %w", err)
	}
	return nil
}

// LoadVault reads vault state from path. A missing file yields an empty
// vault.
func LoadVault(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewVault(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("gateway: reading vault: %w", err)
	}

	var file vaultFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("gateway: decoding vault: %w", err)
	}

	v := NewVault()
	if file.Custody != "" {
		if err := v.custody.SetFromDecimal(file.Custody); err != nil {
			return nil, fmt.Errorf("gateway: invalid custody amount %q: %w", file.Custody, err)
		}
	}
	for addr, dec := range file.Balances {
		b := new(uint256.Int)
		if err := b.SetFromDecimal(dec); err != nil {
			return nil, fmt.Errorf("gateway: invalid balance %q for %s: %w", dec, addr, err)
		}
		v.balances[escrow.Address(addr)] = b
	}
	return v, nil
}
