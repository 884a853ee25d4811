package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"crowdsale/crypto"
	"crowdsale/native/sale"
	"crowdsale/native/token"
)

// Config is the node configuration file.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	Roles     RolesConfig     `toml:"roles"`
	Sale      SaleConfig      `toml:"sale"`
	Token     TokenConfig     `toml:"token"`
	Oracle    OracleConfig    `toml:"oracle"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type NodeConfig struct {
	DataDir       string `toml:"DataDir"`
	StateBackend  string `toml:"StateBackend"`
	ListenAddress string `toml:"ListenAddress"`
	EventLogDSN   string `toml:"EventLogDSN"`
	LogFile       string `toml:"LogFile"`
	Environment   string `toml:"Environment"`
	BootstrapFile string `toml:"BootstrapFile"`
}

// State backends accepted by NodeConfig.StateBackend.
const (
	StateBackendLevelDB = "leveldb"
	StateBackendBolt    = "bolt"
)

// RolesConfig lists bech32 addresses. Sale and Custody are derived when empty.
type RolesConfig struct {
	Operator          string `toml:"Operator"`
	Board             string `toml:"Board"`
	Auditor           string `toml:"Auditor"`
	KYCConfirmer      string `toml:"KYCConfirmer"`
	OracleOperator    string `toml:"OracleOperator"`
	Beneficiary       string `toml:"Beneficiary"`
	RewardDestination string `toml:"RewardDestination"`
	Sale              string `toml:"Sale"`
	Custody           string `toml:"Custody"`
}

// WindowConfig is a contribution window in unix seconds.
type WindowConfig struct {
	Rate  uint64 `toml:"Rate"`
	Start uint64 `toml:"Start"`
	End   uint64 `toml:"End"`
}

// SaleConfig carries amounts as decimal strings.
type SaleConfig struct {
	PreSale             WindowConfig `toml:"presale"`
	Window              WindowConfig `toml:"window"`
	MinContribution     string       `toml:"MinContribution"`
	MaxUnverified       string       `toml:"MaxUnverified"`
	MaxSMSVerified      string       `toml:"MaxSMSVerified"`
	Cap                 string       `toml:"Cap"`
	SMSBonusBps         uint64       `toml:"SMSBonusBps"`
	KYCBonusBps         uint64       `toml:"KYCBonusBps"`
	TeamBonusCeilingBps uint64       `toml:"TeamBonusCeilingBps"`
}

type TokenConfig struct {
	Name                     string `toml:"Name"`
	Symbol                   string `toml:"Symbol"`
	Decimals                 uint8  `toml:"Decimals"`
	InflationBps             uint64 `toml:"InflationBps"`
	InflationIntervalSeconds uint64 `toml:"InflationIntervalSeconds"`
}

const (
	OracleModeRegistry = "registry"
	OracleModeHTTP     = "http"
)

type OracleConfig struct {
	Mode           string `toml:"Mode"`
	URL            string `toml:"URL"`
	TimeoutSeconds int    `toml:"TimeoutSeconds"`
}

// Timeout returns the HTTP oracle timeout.
func (o OracleConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

type GatewayConfig struct {
	JWTSecretEnv      string  `toml:"JWTSecretEnv"`
	Issuer            string  `toml:"Issuer"`
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	Headers  string `toml:"Headers"`
}

// Addresses are the resolved role identities.
type Addresses struct {
	Operator          [20]byte
	Board             [20]byte
	Auditor           [20]byte
	KYCConfirmer      [20]byte
	OracleOperator    [20]byte
	Beneficiary       [20]byte
	RewardDestination [20]byte
	Sale              [20]byte
	Custody           [20]byte
}

// SaleRoles returns the privileged identities of the sale engine.
func (a Addresses) SaleRoles() sale.Roles {
	return sale.Roles{
		Operator:     a.Operator,
		Board:        a.Board,
		Auditor:      a.Auditor,
		KYCConfirmer: a.KYCConfirmer,
	}
}

// Load loads the configuration from the given path. A missing file is
// replaced by a generated local development configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path, time.Now())
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0])
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Node.DataDir) == "" {
		c.Node.DataDir = "./sale-data"
	}
	if strings.TrimSpace(c.Node.StateBackend) == "" {
		c.Node.StateBackend = StateBackendLevelDB
	}
	if strings.TrimSpace(c.Node.ListenAddress) == "" {
		c.Node.ListenAddress = ":8080"
	}
	if strings.TrimSpace(c.Node.EventLogDSN) == "" {
		c.Node.EventLogDSN = filepath.Join(c.Node.DataDir, "events.db")
	}
	if strings.TrimSpace(c.Node.Environment) == "" {
		c.Node.Environment = "local"
	}
	if strings.TrimSpace(c.Oracle.Mode) == "" {
		c.Oracle.Mode = OracleModeRegistry
	}
	if strings.TrimSpace(c.Gateway.JWTSecretEnv) == "" {
		c.Gateway.JWTSecretEnv = "SALE_JWT_SECRET"
	}
	if c.Gateway.RequestsPerMinute <= 0 {
		c.Gateway.RequestsPerMinute = 120
	}
	if c.Gateway.Burst <= 0 {
		c.Gateway.Burst = 20
	}
	if strings.TrimSpace(c.Sale.MinContribution) == "" {
		c.Sale.MinContribution = "0"
	}
}

// Addresses parses the role section.
func (c *Config) Addresses() (Addresses, error) {
	var out Addresses
	fields := []struct {
		name     string
		raw      string
		dst      *[20]byte
		derive   string
		optional bool
	}{
		{name: "Operator", raw: c.Roles.Operator, dst: &out.Operator},
		{name: "Board", raw: c.Roles.Board, dst: &out.Board},
		{name: "Auditor", raw: c.Roles.Auditor, dst: &out.Auditor},
		{name: "KYCConfirmer", raw: c.Roles.KYCConfirmer, dst: &out.KYCConfirmer},
		{name: "OracleOperator", raw: c.Roles.OracleOperator, dst: &out.OracleOperator},
		{name: "Beneficiary", raw: c.Roles.Beneficiary, dst: &out.Beneficiary},
		{name: "RewardDestination", raw: c.Roles.RewardDestination, dst: &out.RewardDestination, optional: true},
		{name: "Sale", raw: c.Roles.Sale, dst: &out.Sale, derive: "sale"},
		{name: "Custody", raw: c.Roles.Custody, dst: &out.Custody, derive: "custody"},
	}
	for _, field := range fields {
		raw := strings.TrimSpace(field.raw)
		if raw == "" {
			switch {
			case field.derive != "":
				*field.dst = crypto.DeriveAddress(field.derive)
				continue
			case field.optional:
				continue
			}
			return out, fmt.Errorf("roles.%s: address required", field.name)
		}
		addr, err := crypto.ParseAddress(raw)
		if err != nil {
			return out, fmt.Errorf("roles.%s: %w", field.name, err)
		}
		if addr == ([20]byte{}) {
			return out, fmt.Errorf("roles.%s: zero address", field.name)
		}
		*field.dst = addr
	}
	return out, nil
}

// SaleSettings converts the sale section into engine parameters.
func (c *Config) SaleSettings() (sale.Config, sale.Limits, error) {
	cfg := sale.Config{
		PreSale: sale.Window(c.Sale.PreSale),
		Sale:    sale.Window(c.Sale.Window),
	}
	var limits sale.Limits
	amounts := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"MinContribution", c.Sale.MinContribution, &limits.MinContribution},
		{"MaxUnverified", c.Sale.MaxUnverified, &limits.MaxUnverified},
		{"MaxSMSVerified", c.Sale.MaxSMSVerified, &limits.MaxSMSVerified},
		{"Cap", c.Sale.Cap, &limits.Cap},
	}
	for _, amount := range amounts {
		value, err := parseUintAmount(amount.raw)
		if err != nil {
			return cfg, limits, fmt.Errorf("invalid sale.%s: %w", amount.name, err)
		}
		*amount.dst = value
	}
	limits.SMSBonusBps = c.Sale.SMSBonusBps
	limits.KYCBonusBps = c.Sale.KYCBonusBps
	limits.TeamBonusCeilingBps = c.Sale.TeamBonusCeilingBps
	return cfg, limits, nil
}

// TokenParams converts the token section into ledger parameters.
func (c *Config) TokenParams(reward [20]byte) token.Params {
	return token.Params{
		Name:              c.Token.Name,
		Symbol:            c.Token.Symbol,
		Decimals:          c.Token.Decimals,
		RewardDestination: reward,
		InflationBps:      c.Token.InflationBps,
		InflationInterval: c.Token.InflationIntervalSeconds,
	}
}

func parseUintAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", raw)
	}
	return value, nil
}

// createDefault writes a single-key development configuration whose pre-sale
// opens an hour after now.
func createDefault(path string, now time.Time) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	dev := key.PubKey().Address().String()
	start := uint64(now.Add(time.Hour).Unix())
	day := uint64(24 * time.Hour / time.Second)

	cfg := &Config{
		Node: NodeConfig{
			DataDir:       "./sale-data",
			StateBackend:  StateBackendLevelDB,
			ListenAddress: ":8080",
			Environment:   "local",
		},
		Roles: RolesConfig{
			Operator:          dev,
			Board:             dev,
			Auditor:           dev,
			KYCConfirmer:      dev,
			OracleOperator:    dev,
			Beneficiary:       dev,
			RewardDestination: dev,
		},
		Sale: SaleConfig{
			PreSale:             WindowConfig{Rate: 1200, Start: start, End: start + 7*day},
			Window:              WindowConfig{Rate: 1000, Start: start + 7*day, End: start + 37*day},
			MinContribution:     "10000000000000000",
			MaxUnverified:       "1000000000000000000",
			MaxSMSVerified:      "10000000000000000000",
			Cap:                 "1000000000000000000000000",
			SMSBonusBps:         500,
			KYCBonusBps:         1000,
			TeamBonusCeilingBps: 1500,
		},
		Token: TokenConfig{
			Name:                     "Crowd Sale Token",
			Symbol:                   "CST",
			Decimals:                 18,
			InflationBps:             100,
			InflationIntervalSeconds: 30 * day,
		},
		Oracle: OracleConfig{Mode: OracleModeRegistry},
	}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
