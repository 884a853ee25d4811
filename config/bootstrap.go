package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"crowdsale/crypto"
	"crowdsale/native/sale"
)

// Bootstrap is the initial state applied once on first start.
type Bootstrap struct {
	Credits   []Credit         `yaml:"credits"`
	Certified []string         `yaml:"certified"`
	KYC       []string         `yaml:"kyc"`
	TeamBonus []TeamBonusEntry `yaml:"teamBonus"`
}

// Credit funds an account with base currency.
type Credit struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// TeamBonusEntry mirrors sale.TeamBonusEntry with a bech32 beneficiary.
type TeamBonusEntry struct {
	Beneficiary string `yaml:"beneficiary"`
	ShareBps    uint64 `yaml:"shareBps"`
	Cliff       uint64 `yaml:"cliff"`
	VestingEnd  uint64 `yaml:"vestingEnd"`
}

// LoadBootstrap reads a YAML bootstrap file.
func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap: %w", err)
	}
	var b Bootstrap
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bootstrap: %w", err)
	}
	return &b, nil
}

// Resolve parses the credit address and amount.
func (c Credit) Resolve() ([20]byte, *big.Int, error) {
	addr, err := crypto.ParseAddress(c.Address)
	if err != nil {
		return addr, nil, fmt.Errorf("credit %q: %w", c.Address, err)
	}
	amount, err := parseUintAmount(c.Amount)
	if err != nil {
		return addr, nil, fmt.Errorf("credit %q: %w", c.Address, err)
	}
	return addr, amount, nil
}

// Resolve converts the entry into its engine form.
func (e TeamBonusEntry) Resolve() (sale.TeamBonusEntry, error) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(e.Beneficiary))
	if err != nil {
		return sale.TeamBonusEntry{}, fmt.Errorf("team bonus %q: %w", e.Beneficiary, err)
	}
	return sale.TeamBonusEntry{
		Beneficiary: addr,
		ShareBps:    e.ShareBps,
		Cliff:       e.Cliff,
		VestingEnd:  e.VestingEnd,
	}, nil
}

// ParseAddresses parses a list of bech32 addresses.
func ParseAddresses(raw []string) ([][20]byte, error) {
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		addr, err := crypto.ParseAddress(entry)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", entry, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
