package sale

import (
	"fmt"

	"crowdsale/native/common"
)

var (
	errNilState = fmt.Errorf("sale: state not configured: %w", common.ErrResourceUnavailable)

	ErrNotDeployed         = fmt.Errorf("sale: not deployed: %w", common.ErrPreconditionViolation)
	ErrAlreadyDeployed     = fmt.Errorf("sale: already deployed: %w", common.ErrStateConflict)
	ErrLedgerNotOwned      = fmt.Errorf("sale: token ledger is not owned by the sale: %w", common.ErrPreconditionViolation)
	ErrUnauthorized        = fmt.Errorf("sale: caller lacks the required role: %w", common.ErrPreconditionViolation)
	ErrZeroAddress         = fmt.Errorf("sale: zero address: %w", common.ErrPreconditionViolation)
	ErrWrongPhase          = fmt.Errorf("sale: operation not permitted in current phase: %w", common.ErrPreconditionViolation)
	ErrTerminalPhase       = fmt.Errorf("sale: sale has concluded: %w", common.ErrStateConflict)
	ErrUnverifiedPreSale   = fmt.Errorf("sale: unverified participants cannot contribute during the pre-sale: %w", common.ErrPreconditionViolation)
	ErrBelowMinimum        = fmt.Errorf("sale: contribution below minimum: %w", common.ErrRangeViolation)
	ErrTierCeilingExceeded = fmt.Errorf("sale: contribution exceeds tier ceiling: %w", common.ErrRangeViolation)
	ErrInvalidWindow       = fmt.Errorf("sale: invalid contribution window: %w", common.ErrRangeViolation)
	ErrInvalidLimits       = fmt.Errorf("sale: invalid limits: %w", common.ErrRangeViolation)
	ErrInvalidTeamBonus    = fmt.Errorf("sale: invalid team bonus entry: %w", common.ErrRangeViolation)
	ErrTeamBonusCeiling    = fmt.Errorf("sale: team bonus shares exceed ceiling: %w", common.ErrRangeViolation)
	ErrTooManyTeamBonuses  = fmt.Errorf("sale: too many team bonus entries: %w", common.ErrRangeViolation)
	ErrEmptyComment        = fmt.Errorf("sale: audit comment required: %w", common.ErrPreconditionViolation)
	ErrAlreadyAudited      = fmt.Errorf("sale: lawfulness already confirmed: %w", common.ErrStateConflict)
	ErrAuditMissing        = fmt.Errorf("sale: lawfulness not yet confirmed: %w", common.ErrPreconditionViolation)
	ErrAlreadyPaused       = fmt.Errorf("sale: already paused: %w", common.ErrStateConflict)
	ErrNotPaused           = fmt.Errorf("sale: not paused: %w", common.ErrStateConflict)
	ErrNothingToRefund     = fmt.Errorf("sale: nothing to refund: %w", common.ErrStateConflict)
	ErrVerificationFailed  = fmt.Errorf("sale: verification oracle unavailable: %w", common.ErrResourceUnavailable)

	// ErrTooManyBeneficiaryGrants keeps finalize from exceeding the ledger's
	// per-holder grant limit.
	ErrTooManyBeneficiaryGrants = fmt.Errorf("sale: beneficiary holds too many team bonus entries: %w", common.ErrRangeViolation)
)
