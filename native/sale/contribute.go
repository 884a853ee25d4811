package sale

import (
	"math/big"

	"crowdsale/native/common"
)

// Contribute converts amount of base currency from caller into newly minted
// units at the current window's rate plus the caller's tier bonus. The
// currency is deposited in the vault under the caller's identity. The
// contribution that crosses the cap is accepted in full and moves the sale
// to Auditing within the same call.
func (e *Engine) Contribute(caller [20]byte, amount *big.Int) (*Receipt, error) {
	var receipt *Receipt
	err := e.atomic(func() error {
		if caller == ([20]byte{}) {
			return ErrZeroAddress
		}
		record, err := e.load()
		if err != nil {
			return err
		}
		if amount == nil || amount.Cmp(record.Limits.MinContribution) < 0 || amount.Sign() <= 0 {
			return ErrBelowMinimum
		}
		if err := e.guard(); err != nil {
			return err
		}
		if err := e.advance(record); err != nil {
			return err
		}
		phase := record.Phase
		if phase != PhasePreSale && phase != PhaseSale {
			return ErrWrongPhase
		}
		participant, err := e.state.SaleParticipantGet(caller)
		if err != nil {
			return err
		}
		tier, err := e.tier(caller, participant)
		if err != nil {
			return err
		}
		if phase == PhasePreSale && tier == TierNone {
			return ErrUnverifiedPreSale
		}

		contributed, err := common.Add(participant.Contributed, amount)
		if err != nil {
			return err
		}
		if ceiling := record.Limits.Ceiling(tier); ceiling != nil && contributed.Cmp(ceiling) > 0 {
			return ErrTierCeilingExceeded
		}
		participant.Contributed = contributed

		totals := &record.Totals
		if phase == PhasePreSale {
			if totals.PreSaleRaised, err = common.Add(totals.PreSaleRaised, amount); err != nil {
				return err
			}
		}
		if totals.Raised, err = common.Add(totals.Raised, amount); err != nil {
			return err
		}
		tokens, err := e.tokensFor(record, phase, tier, amount)
		if err != nil {
			return err
		}
		if totals.UnitsSold, err = common.Add(totals.UnitsSold, tokens); err != nil {
			return err
		}
		balance, err := e.ledger.BalanceOf(caller)
		if err != nil {
			return err
		}
		if balance.Sign() == 0 {
			totals.Contributors++
		}
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		if capReached(totals.UnitsSold, record.Limits.Cap) {
			if err := e.advance(record); err != nil {
				return err
			}
		}
		if err := e.state.SaleParticipantPut(caller, participant); err != nil {
			return err
		}
		if err := e.ledger.Mint(e.address, caller, tokens); err != nil {
			return err
		}
		if err := e.vault.Deposit(e.address, caller, amount); err != nil {
			return err
		}
		receipt = &Receipt{
			Participant: caller,
			Amount:      new(big.Int).Set(amount),
			Tokens:      tokens,
			Tier:        tier,
			Phase:       record.Phase,
		}
		e.emit(contributionEvent(receipt))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// tokensFor returns amount*rate plus the tier bonus on top of it.
func (e *Engine) tokensFor(record *Record, phase Phase, tier Tier, amount *big.Int) (*big.Int, error) {
	rate := record.Config.Sale.Rate
	if phase == PhasePreSale {
		rate = record.Config.PreSale.Rate
	}
	base, err := common.Mul(amount, new(big.Int).SetUint64(rate))
	if err != nil {
		return nil, err
	}
	bonus, err := common.MulBps(base, record.Limits.BonusBps(tier))
	if err != nil {
		return nil, err
	}
	return common.Add(base, bonus)
}
