package token

import "math/big"

// transferPolicy decides whether a transfer-class operation may move amount
// out of a holder's balance. The scheduler gate runs before the policy is
// consulted; the policy itself is the conjunction of the release flag and the
// unlocked balance check.
type transferPolicy struct{}

// admit checks the release flag and, when amount is non-nil, the plain and the
// vested balance of the sender. Privileged callers bypass the release flag.
func (transferPolicy) admit(released, privileged bool, amount, balance, transferable *big.Int) error {
	if !released && !privileged {
		return ErrTransferLocked
	}
	if amount == nil {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if transferable.Cmp(amount) < 0 {
		return ErrInsufficientUnlockedBalance
	}
	return nil
}
