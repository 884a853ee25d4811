package config

import (
	"fmt"
	"strings"

	"crowdsale/native/common"
)

// Validate checks the configuration for values the node cannot start with.
// Window start times are not compared with the clock here; the sale engine
// does that at deploy.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Node.DataDir) == "" {
		return fmt.Errorf("node: DataDir required")
	}
	switch c.Node.StateBackend {
	case StateBackendLevelDB, StateBackendBolt:
	default:
		return fmt.Errorf("node: unknown StateBackend %q", c.Node.StateBackend)
	}
	if strings.TrimSpace(c.Node.ListenAddress) == "" {
		return fmt.Errorf("node: ListenAddress required")
	}
	addrs, err := c.Addresses()
	if err != nil {
		return err
	}
	if err := validateWindow("sale.presale", c.Sale.PreSale); err != nil {
		return err
	}
	if err := validateWindow("sale.window", c.Sale.Window); err != nil {
		return err
	}
	if c.Sale.PreSale.End > c.Sale.Window.Start {
		return fmt.Errorf("sale: presale must end before the sale window starts")
	}
	_, limits, err := c.SaleSettings()
	if err != nil {
		return err
	}
	if limits.Cap.Sign() == 0 || limits.MaxUnverified.Sign() == 0 || limits.MaxSMSVerified.Sign() == 0 {
		return fmt.Errorf("sale: Cap, MaxUnverified and MaxSMSVerified must be positive")
	}
	for name, bps := range map[string]uint64{
		"SMSBonusBps":         c.Sale.SMSBonusBps,
		"KYCBonusBps":         c.Sale.KYCBonusBps,
		"TeamBonusCeilingBps": c.Sale.TeamBonusCeilingBps,
		"token.InflationBps":  c.Token.InflationBps,
	} {
		if bps > common.BasisPointsDenom {
			return fmt.Errorf("sale: %s exceeds %d", name, common.BasisPointsDenom)
		}
	}
	if strings.TrimSpace(c.Token.Name) == "" || strings.TrimSpace(c.Token.Symbol) == "" {
		return fmt.Errorf("token: Name and Symbol required")
	}
	if c.Token.InflationIntervalSeconds == 0 {
		return fmt.Errorf("token: InflationIntervalSeconds must be positive")
	}
	if c.Token.InflationBps > 0 && addrs.RewardDestination == ([20]byte{}) {
		return fmt.Errorf("roles: RewardDestination required when inflation is enabled")
	}
	switch strings.TrimSpace(c.Oracle.Mode) {
	case OracleModeRegistry:
	case OracleModeHTTP:
		if strings.TrimSpace(c.Oracle.URL) == "" {
			return fmt.Errorf("oracle: URL required in http mode")
		}
	default:
		return fmt.Errorf("oracle: unknown mode %q", c.Oracle.Mode)
	}
	if strings.TrimSpace(c.Gateway.JWTSecretEnv) == "" {
		return fmt.Errorf("gateway: JWTSecretEnv required")
	}
	return nil
}

func validateWindow(name string, w WindowConfig) error {
	if w.Rate == 0 {
		return fmt.Errorf("%s: Rate must be positive", name)
	}
	if w.Start >= w.End {
		return fmt.Errorf("%s: Start must precede End", name)
	}
	return nil
}
