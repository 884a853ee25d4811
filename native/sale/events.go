package sale

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"lukechampine.com/blake3"

	"crowdsale/core/types"
	"crowdsale/crypto"
)

const (
	EventTypePhaseChanged        = "sale.phase.changed"
	EventTypeKYCConfirmed        = "sale.kyc.confirmed"
	EventTypeTokenAssigned       = "sale.token.assigned"
	EventTypeTransitionTimed     = "sale.transition.timed"
	EventTypePreSaleConfigured   = "sale.presale.configured"
	EventTypeContribution        = "sale.contribution"
	EventTypeFinalized           = "sale.finalized"
	EventTypeLawfulnessConfirmed = "sale.lawfulness.confirmed"
	EventTypeRefundsEnabled      = "sale.refunds.enabled"
	EventTypeWindowConfigured    = "sale.window.configured"
	EventTypeRefundClaimed       = "sale.refund.claimed"
	EventTypeTeamBonusAdded      = "sale.team_bonus.added"
	EventTypeTeamBonusAllocated  = "sale.team_bonus.allocated"
	EventTypePaused              = "sale.paused"
	EventTypeUnpaused            = "sale.unpaused"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatTime(ts uint64) string { return strconv.FormatUint(ts, 10) }

func phaseChangedEvent(from, to Phase, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypePhaseChanged,
		Attributes: map[string]string{
			"from":      from.String(),
			"to":        to.String(),
			"timestamp": formatTime(ts),
		},
	}
}

func transitionTimedEvent(to Phase, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransitionTimed,
		Attributes: map[string]string{
			"phase":     to.String(),
			"timestamp": formatTime(ts),
		},
	}
}

func tokenAssignedEvent(sale [20]byte, name, symbol string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenAssigned,
		Attributes: map[string]string{
			"sale":   crypto.FormatAddress(sale),
			"name":   name,
			"symbol": symbol,
		},
	}
}

func kycConfirmedEvent(participant [20]byte, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypeKYCConfirmed,
		Attributes: map[string]string{
			"participant": crypto.FormatAddress(participant),
			"timestamp":   formatTime(ts),
		},
	}
}

func windowEvent(eventType string, w Window) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"rate":  strconv.FormatUint(w.Rate, 10),
			"start": formatTime(w.Start),
			"end":   formatTime(w.End),
		},
	}
}

func contributionEvent(r *Receipt) *types.Event {
	return &types.Event{
		Type: EventTypeContribution,
		Attributes: map[string]string{
			"participant": crypto.FormatAddress(r.Participant),
			"amount":      amountString(r.Amount),
			"tokens":      amountString(r.Tokens),
			"tier":        r.Tier.String(),
			"phase":       r.Phase.String(),
		},
	}
}

func finalizedEvent(totals Totals, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypeFinalized,
		Attributes: map[string]string{
			"unitsSold": amountString(totals.UnitsSold),
			"raised":    amountString(totals.Raised),
			"teamBonus": amountString(totals.TeamBonusAllocated),
			"timestamp": formatTime(ts),
		},
	}
}

func lawfulnessEvent(audit Audit, ts uint64) *types.Event {
	digest := blake3.Sum256([]byte(audit.Comment))
	return &types.Event{
		Type: EventTypeLawfulnessConfirmed,
		Attributes: map[string]string{
			"fulfilled": strconv.FormatBool(audit.Fulfilled),
			"comment":   audit.Comment,
			"digest":    hex.EncodeToString(digest[:]),
			"timestamp": formatTime(ts),
		},
	}
}

func refundsEnabledEvent(raised *big.Int, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypeRefundsEnabled,
		Attributes: map[string]string{
			"raised":    amountString(raised),
			"timestamp": formatTime(ts),
		},
	}
}

func refundClaimedEvent(participant [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRefundClaimed,
		Attributes: map[string]string{
			"participant": crypto.FormatAddress(participant),
			"amount":      amountString(amount),
		},
	}
}

func teamBonusEvent(eventType string, entry TeamBonusEntry, amount *big.Int) *types.Event {
	attrs := map[string]string{
		"beneficiary": crypto.FormatAddress(entry.Beneficiary),
		"shareBps":    strconv.FormatUint(entry.ShareBps, 10),
		"cliff":       formatTime(entry.Cliff),
		"vestingEnd":  formatTime(entry.VestingEnd),
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func pauseEvent(paused bool, ts uint64) *types.Event {
	eventType := EventTypeUnpaused
	if paused {
		eventType = EventTypePaused
	}
	return &types.Event{Type: eventType, Attributes: map[string]string{"timestamp": formatTime(ts)}}
}
