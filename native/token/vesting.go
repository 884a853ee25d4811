package token

import "math/big"

// VestedAt returns the portion of the grant vested at ts. Nothing vests
// before the cliff and everything has vested once the vesting end is reached.
// In between, vesting is linear from the grant start.
func (g *Grant) VestedAt(ts uint64) *big.Int {
	value := cloneAmount(g.Value)
	if ts < g.Cliff {
		return big.NewInt(0)
	}
	if ts >= g.Vesting {
		return value
	}
	elapsed := new(big.Int).SetUint64(ts - g.Start)
	duration := new(big.Int).SetUint64(g.Vesting - g.Start)
	vested := new(big.Int).Mul(value, elapsed)
	return vested.Quo(vested, duration)
}

// NonVestedAt returns the portion of the grant still locked at ts.
func (g *Grant) NonVestedAt(ts uint64) *big.Int {
	return new(big.Int).Sub(cloneAmount(g.Value), g.VestedAt(ts))
}

func validateGrant(g *Grant) error {
	if g.Value == nil || g.Value.Sign() <= 0 {
		return ErrInvalidGrant
	}
	if g.Cliff < g.Start || g.Vesting < g.Cliff {
		return ErrInvalidGrant
	}
	return nil
}

// lockedAt sums the non-vested value of every grant at ts.
func lockedAt(grants []Grant, ts uint64) *big.Int {
	locked := big.NewInt(0)
	for i := range grants {
		locked.Add(locked, grants[i].NonVestedAt(ts))
	}
	return locked
}

// transferableAt returns the part of balance not held back by grants.
func transferableAt(balance *big.Int, grants []Grant, ts uint64) *big.Int {
	free := new(big.Int).Sub(cloneAmount(balance), lockedAt(grants, ts))
	if free.Sign() < 0 {
		return big.NewInt(0)
	}
	return free
}
