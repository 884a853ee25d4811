package sale

import (
	"math/big"

	"crowdsale/native/common"
)

// MaxTeamBonusEntries bounds the team bonus list walked during finalize.
const MaxTeamBonusEntries = 32

func (w Window) configured() bool { return w.Rate > 0 }

func validateWindow(w Window, now uint64) error {
	if w.Rate == 0 || w.Start >= w.End || w.Start < now {
		return ErrInvalidWindow
	}
	return nil
}

// validateConfig checks both windows and their ordering.
func validateConfig(cfg Config, now uint64) error {
	if err := validateWindow(cfg.PreSale, now); err != nil {
		return err
	}
	if err := validateWindow(cfg.Sale, now); err != nil {
		return err
	}
	if cfg.PreSale.End > cfg.Sale.Start {
		return ErrInvalidWindow
	}
	return nil
}

func positive(v *big.Int) bool { return v != nil && v.Sign() > 0 }

func validateLimits(l Limits) error {
	if l.MinContribution == nil || l.MinContribution.Sign() < 0 {
		return ErrInvalidLimits
	}
	if !positive(l.MaxUnverified) || !positive(l.MaxSMSVerified) || !positive(l.Cap) {
		return ErrInvalidLimits
	}
	if l.SMSBonusBps > common.BasisPointsDenom || l.KYCBonusBps > common.BasisPointsDenom {
		return ErrInvalidLimits
	}
	if l.TeamBonusCeilingBps > common.BasisPointsDenom {
		return ErrInvalidLimits
	}
	return nil
}
