package token

import (
	"fmt"

	"crowdsale/native/common"
)

var (
	errNilState = fmt.Errorf("token: state not configured: %w", common.ErrResourceUnavailable)

	ErrNotDeployed                 = fmt.Errorf("token: not deployed: %w", common.ErrPreconditionViolation)
	ErrAlreadyDeployed             = fmt.Errorf("token: already deployed: %w", common.ErrStateConflict)
	ErrUnauthorized                = fmt.Errorf("token: caller is not the owner: %w", common.ErrPreconditionViolation)
	ErrZeroAddress                 = fmt.Errorf("token: zero address: %w", common.ErrPreconditionViolation)
	ErrTransferLocked              = fmt.Errorf("token: transfers are locked until release: %w", common.ErrPreconditionViolation)
	ErrMintingClosed               = fmt.Errorf("token: minting finished: %w", common.ErrStateConflict)
	ErrAlreadyReleased             = fmt.Errorf("token: already released: %w", common.ErrStateConflict)
	ErrInvalidAmount               = fmt.Errorf("token: amount must be non-negative: %w", common.ErrRangeViolation)
	ErrInsufficientBalance         = fmt.Errorf("token: insufficient balance: %w", common.ErrRangeViolation)
	ErrInsufficientUnlockedBalance = fmt.Errorf("token: amount exceeds vested and unlocked balance: %w", common.ErrRangeViolation)
	ErrInsufficientAllowance       = fmt.Errorf("token: insufficient allowance: %w", common.ErrRangeViolation)
	ErrTooManyGrants               = fmt.Errorf("token: holder has too many grants: %w", common.ErrRangeViolation)
	ErrInvalidGrant                = fmt.Errorf("token: invalid grant schedule: %w", common.ErrRangeViolation)
	ErrGrantNotFound               = fmt.Errorf("token: grant not found: %w", common.ErrRangeViolation)
	ErrGrantNotRevocable           = fmt.Errorf("token: grant not revocable by caller: %w", common.ErrPreconditionViolation)
	ErrInvalidMetadata             = fmt.Errorf("token: name and symbol required: %w", common.ErrRangeViolation)
)
