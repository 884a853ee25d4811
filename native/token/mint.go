package token

import (
	"math/big"

	"crowdsale/native/common"
)

type supplyStore interface {
	TokenBalanceGet(addr [20]byte) (*big.Int, error)
	TokenBalancePut(addr [20]byte, amount *big.Int) error
}

// mintAuthority issues and destroys units. It updates the holder balance and
// the total supply carried by meta; persisting meta is left to the caller.
type mintAuthority struct {
	state supplyStore
}

func (m mintAuthority) issue(meta *Metadata, to [20]byte, amount *big.Int) error {
	supply, err := common.Add(meta.TotalSupply, amount)
	if err != nil {
		return err
	}
	balance, err := m.state.TokenBalanceGet(to)
	if err != nil {
		return err
	}
	updated, err := common.Add(balance, amount)
	if err != nil {
		return err
	}
	if err := m.state.TokenBalancePut(to, updated); err != nil {
		return err
	}
	meta.TotalSupply = supply
	return nil
}

func (m mintAuthority) burn(meta *Metadata, from [20]byte, amount *big.Int) error {
	balance, err := m.state.TokenBalanceGet(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := common.Sub(meta.TotalSupply, amount)
	if err != nil {
		return err
	}
	if err := m.state.TokenBalancePut(from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	meta.TotalSupply = supply
	return nil
}

// inflation returns the units minted for a single scheduler interval.
func inflation(meta *Metadata) (*big.Int, error) {
	return common.MulBps(cloneAmount(meta.TotalSupply), meta.InflationBps)
}
