package sale

import "math/big"

// DerivePhase computes the phase implied by the clock, the units sold and the
// configured windows. Terminal phases never change and the result is never
// earlier than prev. The function is pure.
func DerivePhase(now uint64, unitsSold, hardCap *big.Int, cfg Config, prev Phase) Phase {
	if prev.Terminal() {
		return prev
	}
	target := timedPhase(now, cfg)
	if capReached(unitsSold, hardCap) {
		target = PhaseAuditing
	}
	if target < prev {
		return prev
	}
	return target
}

func timedPhase(now uint64, cfg Config) Phase {
	switch {
	case now < cfg.PreSale.Start:
		return PhasePreparePreSale
	case now < cfg.PreSale.End:
		return PhasePreSale
	case now < cfg.Sale.Start:
		return PhasePrepareSale
	case now < cfg.Sale.End:
		return PhaseSale
	default:
		return PhaseAuditing
	}
}

func capReached(unitsSold, hardCap *big.Int) bool {
	if unitsSold == nil || hardCap == nil || hardCap.Sign() <= 0 {
		return false
	}
	return unitsSold.Cmp(hardCap) >= 0
}
