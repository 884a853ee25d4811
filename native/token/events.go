package token

import (
	"math/big"
	"strconv"

	"crowdsale/core/types"
	"crowdsale/crypto"
)

const (
	EventTypeTransfer     = "token.transfer"
	EventTypeApproval     = "token.approval"
	EventTypeMint         = "token.mint"
	EventTypeMintFinished = "token.mint.finished"
	EventTypeReleased     = "token.released"
	EventTypeGrant        = "token.grant"
	EventTypeGrantRevoked = "token.grant.revoked"
	EventTypeOwnership    = "token.ownership"
	EventTypeRenamed      = "token.renamed"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func transferEvent(from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   crypto.FormatAddress(from),
			"to":     crypto.FormatAddress(to),
			"amount": amountString(amount),
		},
	}
}

func approvalEvent(owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproval,
		Attributes: map[string]string{
			"owner":   crypto.FormatAddress(owner),
			"spender": crypto.FormatAddress(spender),
			"amount":  amountString(amount),
		},
	}
}

func mintEvent(to [20]byte, amount *big.Int, reason string) *types.Event {
	return &types.Event{
		Type: EventTypeMint,
		Attributes: map[string]string{
			"to":     crypto.FormatAddress(to),
			"amount": amountString(amount),
			"reason": reason,
		},
	}
}

func mintFinishedEvent(symbol string) *types.Event {
	return &types.Event{Type: EventTypeMintFinished, Attributes: map[string]string{"symbol": symbol}}
}

func releasedEvent(symbol string, ts uint64) *types.Event {
	return &types.Event{
		Type: EventTypeReleased,
		Attributes: map[string]string{
			"symbol":    symbol,
			"timestamp": strconv.FormatUint(ts, 10),
		},
	}
}

func grantEvent(holder [20]byte, grant *Grant, index int) *types.Event {
	return &types.Event{
		Type: EventTypeGrant,
		Attributes: map[string]string{
			"holder":    crypto.FormatAddress(holder),
			"granter":   crypto.FormatAddress(grant.Granter),
			"grantId":   strconv.Itoa(index),
			"value":     amountString(grant.Value),
			"start":     strconv.FormatUint(grant.Start, 10),
			"cliff":     strconv.FormatUint(grant.Cliff, 10),
			"vesting":   strconv.FormatUint(grant.Vesting, 10),
			"revocable": strconv.FormatBool(grant.Revocable),
			"burnable":  strconv.FormatBool(grant.Burnable),
		},
	}
}

func grantRevokedEvent(holder, receiver [20]byte, index int, amount *big.Int, burned bool) *types.Event {
	return &types.Event{
		Type: EventTypeGrantRevoked,
		Attributes: map[string]string{
			"holder":   crypto.FormatAddress(holder),
			"receiver": crypto.FormatAddress(receiver),
			"grantId":  strconv.Itoa(index),
			"amount":   amountString(amount),
			"burned":   strconv.FormatBool(burned),
		},
	}
}

func ownershipEvent(previous, next [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOwnership,
		Attributes: map[string]string{
			"previous": crypto.FormatAddress(previous),
			"owner":    crypto.FormatAddress(next),
		},
	}
}

func renamedEvent(name, symbol string) *types.Event {
	return &types.Event{
		Type:       EventTypeRenamed,
		Attributes: map[string]string{"name": name, "symbol": symbol},
	}
}
