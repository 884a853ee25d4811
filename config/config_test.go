package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crowdsale/crypto"
)

func addr(b byte) string {
	var raw [20]byte
	raw[0] = b
	raw[19] = b
	return crypto.FormatAddress(raw)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func validConfig() string {
	return `[node]
DataDir = "./data"
ListenAddress = "127.0.0.1:9090"
Environment = "test"

[roles]
Operator = "` + addr(1) + `"
Board = "` + addr(2) + `"
Auditor = "` + addr(3) + `"
KYCConfirmer = "` + addr(4) + `"
OracleOperator = "` + addr(5) + `"
Beneficiary = "` + addr(6) + `"
RewardDestination = "` + addr(7) + `"

[sale]
MinContribution = "10"
MaxUnverified = "1000"
MaxSMSVerified = "2000"
Cap = "1000000"
SMSBonusBps = 500
KYCBonusBps = 1000
TeamBonusCeilingBps = 500

[sale.presale]
Rate = 3
Start = 2000000000
End = 2000001000

[sale.window]
Rate = 2
Start = 2000002000
End = 2000003000

[token]
Name = "Crowd Sale Token"
Symbol = "CST"
Decimals = 18
InflationBps = 100
InflationIntervalSeconds = 2592000

[oracle]
Mode = "http"
URL = "http://oracle.local"
TimeoutSeconds = 3
`
}

func TestLoadParsesSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Node.ListenAddress != "127.0.0.1:9090" || cfg.Node.EventLogDSN != filepath.Join("./data", "events.db") {
		t.Fatalf("unexpected node section %+v", cfg.Node)
	}
	if cfg.Node.StateBackend != StateBackendLevelDB {
		t.Fatalf("expected leveldb default backend, got %q", cfg.Node.StateBackend)
	}
	if cfg.Gateway.JWTSecretEnv != "SALE_JWT_SECRET" || cfg.Gateway.Burst != 20 {
		t.Fatalf("gateway defaults not applied: %+v", cfg.Gateway)
	}
	if cfg.Oracle.Timeout().Seconds() != 3 {
		t.Fatalf("unexpected oracle timeout %v", cfg.Oracle.Timeout())
	}

	addrs, err := cfg.Addresses()
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if addrs.Sale != crypto.DeriveAddress("sale") || addrs.Custody != crypto.DeriveAddress("custody") {
		t.Fatalf("expected derived module accounts")
	}
	if addrs.SaleRoles().Board[0] != 2 {
		t.Fatalf("unexpected board %x", addrs.Board)
	}

	saleCfg, limits, err := cfg.SaleSettings()
	if err != nil {
		t.Fatalf("sale settings: %v", err)
	}
	if saleCfg.PreSale.Rate != 3 || saleCfg.Sale.End != 2000003000 {
		t.Fatalf("unexpected windows %+v", saleCfg)
	}
	if limits.Cap.Int64() != 1_000_000 || limits.MinContribution.Int64() != 10 || limits.KYCBonusBps != 1000 {
		t.Fatalf("unexpected limits %+v", limits)
	}
	params := cfg.TokenParams(addrs.RewardDestination)
	if params.InflationInterval != 2592000 || params.RewardDestination != addrs.RewardDestination {
		t.Fatalf("unexpected token params %+v", params)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig()+"\n[extra]\nFoo = 1\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"missing operator":   func(c *Config) { c.Roles.Operator = "" },
		"foreign prefix":     func(c *Config) { c.Roles.Board = "nhb1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqe4dz3g" },
		"overlapping window": func(c *Config) { c.Sale.PreSale.End = c.Sale.Window.Start + 1 },
		"zero rate":          func(c *Config) { c.Sale.Window.Rate = 0 },
		"bad cap":            func(c *Config) { c.Sale.Cap = "lots" },
		"zero cap":           func(c *Config) { c.Sale.Cap = "0" },
		"bonus bps":          func(c *Config) { c.Sale.KYCBonusBps = 10_001 },
		"missing reward":     func(c *Config) { c.Roles.RewardDestination = "" },
		"http without url":   func(c *Config) { c.Oracle.URL = "" },
		"unknown oracle":     func(c *Config) { c.Oracle.Mode = "carrier-pigeon" },
		"unknown backend":    func(c *Config) { c.Node.StateBackend = "rocksdb" },
		"zero interval":      func(c *Config) { c.Token.InflationIntervalSeconds = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig()))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Roles.Operator != cfg.Roles.Operator || reloaded.Sale.Cap != cfg.Sale.Cap {
		t.Fatalf("reloaded config differs")
	}
}

func TestLoadBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	contents := `credits:
  - address: ` + addr(9) + `
    amount: "5000"
certified:
  - ` + addr(10) + `
kyc:
  - ` + addr(11) + `
teamBonus:
  - beneficiary: ` + addr(12) + `
    shareBps: 250
    cliff: 2000010000
    vestingEnd: 2000020000
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := LoadBootstrap(path)
	if err != nil {
		t.Fatalf("load bootstrap: %v", err)
	}
	who, amount, err := b.Credits[0].Resolve()
	if err != nil || who[0] != 9 || amount.Int64() != 5000 {
		t.Fatalf("unexpected credit %x %v (%v)", who, amount, err)
	}
	certified, err := ParseAddresses(b.Certified)
	if err != nil || len(certified) != 1 || certified[0][0] != 10 {
		t.Fatalf("unexpected certified list %v (%v)", certified, err)
	}
	entry, err := b.TeamBonus[0].Resolve()
	if err != nil || entry.ShareBps != 250 || entry.VestingEnd != 2000020000 {
		t.Fatalf("unexpected team bonus %+v (%v)", entry, err)
	}
	if _, _, err := (Credit{Address: addr(1), Amount: "-1"}).Resolve(); err == nil {
		t.Fatalf("expected negative credit to be rejected")
	}
}
