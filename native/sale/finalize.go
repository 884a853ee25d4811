package sale

import (
	"math/big"
	"strings"

	"golang.org/x/text/unicode/norm"

	"crowdsale/native/common"
)

// ConfirmLawfulness records the auditor's verdict. The comment is the proof
// of audit and can only be recorded once.
func (e *Engine) ConfirmLawfulness(caller [20]byte, fulfilled bool, comment string) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Auditor)
		if err != nil {
			return err
		}
		if record.Phase != PhaseAuditing {
			return ErrWrongPhase
		}
		comment = norm.NFC.String(strings.TrimSpace(comment))
		if comment == "" {
			return ErrEmptyComment
		}
		if record.Audit.Present() {
			return ErrAlreadyAudited
		}
		record.Audit = Audit{Fulfilled: fulfilled, Comment: comment}
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(lawfulnessEvent(record.Audit, e.now()))
		return nil
	})
}

func (e *Engine) loadDecision(caller [20]byte) (*Record, error) {
	record, err := e.loadGated(caller, e.roles.Board)
	if err != nil {
		return nil, err
	}
	if record.Phase.Terminal() {
		return nil, ErrTerminalPhase
	}
	if record.Phase != PhaseAuditing {
		return nil, ErrWrongPhase
	}
	if !record.Audit.Present() {
		return nil, ErrAuditMissing
	}
	return record, nil
}

// Finalize concludes a successful sale: it releases transfers, allocates the
// team bonus, pays the vault to the beneficiary, closes minting, enables the
// inflation schedule and hands the ledger to the operator.
func (e *Engine) Finalize(caller [20]byte) error {
	return e.atomic(func() error {
		record, err := e.loadDecision(caller)
		if err != nil {
			return err
		}
		if err := e.setPhase(record, PhaseFinalized, false); err != nil {
			return err
		}
		if err := e.ledger.Release(e.address); err != nil {
			return err
		}
		if err := e.allocateTeamBonus(record); err != nil {
			return err
		}
		if err := e.vault.Close(e.address); err != nil {
			return err
		}
		if err := e.ledger.FinishMinting(e.address); err != nil {
			return err
		}
		if err := e.ledger.EnableSchedule(e.address); err != nil {
			return err
		}
		if err := e.ledger.TransferOwnership(e.address, e.roles.Operator); err != nil {
			return err
		}
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(finalizedEvent(record.Totals, e.now()))
		return nil
	})
}

// EnableRefunds concludes a failed sale and lets contributors reclaim their
// deposits. Transferability and minting are left untouched.
func (e *Engine) EnableRefunds(caller [20]byte) error {
	return e.atomic(func() error {
		record, err := e.loadDecision(caller)
		if err != nil {
			return err
		}
		if err := e.setPhase(record, PhaseRefunding, false); err != nil {
			return err
		}
		if err := e.vault.EnableRefunds(e.address); err != nil {
			return err
		}
		e.emit(refundsEnabledEvent(record.Totals.Raised, e.now()))
		return nil
	})
}

// ClaimRefund pays caller back everything it deposited.
func (e *Engine) ClaimRefund(caller [20]byte) (*big.Int, error) {
	var refunded *big.Int
	err := e.atomic(func() error {
		if caller == ([20]byte{}) {
			return ErrZeroAddress
		}
		record, err := e.load()
		if err != nil {
			return err
		}
		if err := e.advance(record); err != nil {
			return err
		}
		if record.Phase != PhaseRefunding {
			return ErrWrongPhase
		}
		deposited, err := e.vault.DepositedBalance(caller)
		if err != nil {
			return err
		}
		if deposited.Sign() == 0 {
			return ErrNothingToRefund
		}
		paid, err := e.vault.Refund(caller)
		if err != nil {
			return err
		}
		if record.Totals.Refunded, err = common.Add(record.Totals.Refunded, paid); err != nil {
			return err
		}
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(refundClaimedEvent(caller, paid))
		refunded = paid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refunded, nil
}
