package core

import (
	"fmt"

	"crowdsale/config"
)

var bootstrapKey = []byte("node/bootstrapped")

// Bootstrap applies b in a single commit unless a bootstrap was already
// applied. It reports whether b was applied.
func (n *Node) Bootstrap(b *config.Bootstrap) (bool, error) {
	if b == nil {
		return false, nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	var done bool
	if ok, err := n.state.KVGet(bootstrapKey, &done); err != nil {
		return false, err
	} else if ok && done {
		return false, nil
	}
	s := n.settings
	err := n.state.Atomic(func() error {
		for _, credit := range b.Credits {
			addr, amount, err := credit.Resolve()
			if err != nil {
				return err
			}
			if err := n.bank.Credit(addr, amount); err != nil {
				return fmt.Errorf("credit %s: %w", credit.Address, err)
			}
		}
		certified, err := config.ParseAddresses(b.Certified)
		if err != nil {
			return err
		}
		for _, addr := range certified {
			if err := n.registry.Certify(s.OracleOperator, addr); err != nil {
				return fmt.Errorf("certify: %w", err)
			}
		}
		kyc, err := config.ParseAddresses(b.KYC)
		if err != nil {
			return err
		}
		for _, addr := range kyc {
			if err := n.sale.ConfirmKYC(s.Roles.KYCConfirmer, addr); err != nil {
				return fmt.Errorf("confirm kyc: %w", err)
			}
		}
		for _, raw := range b.TeamBonus {
			entry, err := raw.Resolve()
			if err != nil {
				return err
			}
			if err := n.sale.AddTeamBonus(s.Roles.Operator, entry); err != nil {
				return fmt.Errorf("team bonus %s: %w", raw.Beneficiary, err)
			}
		}
		return n.state.KVPut(bootstrapKey, true)
	})
	if err != nil {
		return false, err
	}
	n.log.Info("bootstrap applied",
		"credits", len(b.Credits),
		"certified", len(b.Certified),
		"kyc", len(b.KYC),
		"teamBonus", len(b.TeamBonus))
	return true, nil
}
