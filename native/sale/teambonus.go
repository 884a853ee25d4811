package sale

import (
	"crowdsale/native/common"
	"crowdsale/native/token"
)

// AddTeamBonus records a vested allocation paid out at finalize. The sum of
// all shares may never exceed the configured ceiling and a beneficiary may
// hold no more entries than the ledger accepts grants per holder.
func (e *Engine) AddTeamBonus(caller [20]byte, entry TeamBonusEntry) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Operator)
		if err != nil {
			return err
		}
		if record.Phase != PhasePreparePreSale {
			return ErrWrongPhase
		}
		if entry.Beneficiary == ([20]byte{}) {
			return ErrZeroAddress
		}
		if entry.ShareBps == 0 || entry.ShareBps > common.BasisPointsDenom || entry.Cliff > entry.VestingEnd {
			return ErrInvalidTeamBonus
		}
		entries, err := e.state.SaleTeamBonusGet()
		if err != nil {
			return err
		}
		if len(entries) >= MaxTeamBonusEntries {
			return ErrTooManyTeamBonuses
		}
		total := entry.ShareBps
		held := 0
		for _, existing := range entries {
			total += existing.ShareBps
			if existing.Beneficiary == entry.Beneficiary {
				held++
			}
		}
		if total > record.Limits.TeamBonusCeilingBps {
			return ErrTeamBonusCeiling
		}
		if held >= token.MaxGrantsPerHolder {
			return ErrTooManyBeneficiaryGrants
		}
		if err := e.state.SaleTeamBonusPut(append(entries, entry)); err != nil {
			return err
		}
		e.emit(teamBonusEvent(EventTypeTeamBonusAdded, entry, nil))
		return nil
	})
}

// TeamBonusEntries returns the recorded entries in insertion order.
func (e *Engine) TeamBonusEntries() ([]TeamBonusEntry, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	entries, err := e.state.SaleTeamBonusGet()
	if err != nil {
		return nil, err
	}
	return append([]TeamBonusEntry(nil), entries...), nil
}

// allocateTeamBonus mints every entry's share of the units sold to the sale
// address and immediately grants it, vested and irrevocable, to the
// beneficiary. Cliffs already in the past vest from now.
func (e *Engine) allocateTeamBonus(record *Record) error {
	entries, err := e.state.SaleTeamBonusGet()
	if err != nil {
		return err
	}
	now := e.now()
	allocated := cloneAmount(record.Totals.TeamBonusAllocated)
	for _, entry := range entries {
		amount, err := common.MulBps(record.Totals.UnitsSold, entry.ShareBps)
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			continue
		}
		if err := e.ledger.Mint(e.address, e.address, amount); err != nil {
			return err
		}
		cliff := entry.Cliff
		if cliff < now {
			cliff = now
		}
		vesting := entry.VestingEnd
		if vesting < cliff {
			vesting = cliff
		}
		if err := e.ledger.GrantVestedTokens(e.address, entry.Beneficiary, amount, now, cliff, vesting, false, false); err != nil {
			return err
		}
		allocated, err = common.Add(allocated, amount)
		if err != nil {
			return err
		}
		e.emit(teamBonusEvent(EventTypeTeamBonusAllocated, entry, amount))
	}
	record.Totals.TeamBonusAllocated = allocated
	return nil
}
