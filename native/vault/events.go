package vault

import (
	"math/big"

	"crowdsale/core/types"
	"crowdsale/crypto"
)

const (
	EventTypeDeposited      = "vault.deposited"
	EventTypeClosed         = "vault.closed"
	EventTypeRefundsEnabled = "vault.refunds.enabled"
	EventTypeRefunded       = "vault.refunded"
)

type vaultEvent struct {
	evt *types.Event
}

func (e vaultEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vaultEvent) Event() *types.Event { return e.evt }

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewDepositedEvent describes funds placed in custody on behalf of payer.
func NewDepositedEvent(payer [20]byte, amount, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"payer":  crypto.FormatAddress(payer),
			"amount": amountString(amount),
			"total":  amountString(total),
		},
	}
}

// NewClosedEvent describes the release of custody funds to the beneficiary.
func NewClosedEvent(beneficiary [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeClosed,
		Attributes: map[string]string{
			"beneficiary": crypto.FormatAddress(beneficiary),
			"amount":      amountString(amount),
		},
	}
}

// NewRefundsEnabledEvent marks the switch into refund mode.
func NewRefundsEnabledEvent(total *big.Int) *types.Event {
	return &types.Event{
		Type:       EventTypeRefundsEnabled,
		Attributes: map[string]string{"total": amountString(total)},
	}
}

// NewRefundedEvent describes a refund paid back to payee.
func NewRefundedEvent(payee [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRefunded,
		Attributes: map[string]string{
			"payee":  crypto.FormatAddress(payee),
			"amount": amountString(amount),
		},
	}
}
