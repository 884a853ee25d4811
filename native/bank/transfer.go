package bank

import (
	"fmt"
	"math/big"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/crypto"
	"crowdsale/native/common"
)

const (
	EventTypeCredited    = "bank.credited"
	EventTypeTransferred = "bank.transferred"
)

var (
	errNilState          = fmt.Errorf("bank: state not configured: %w", common.ErrResourceUnavailable)
	ErrInsufficientFunds = fmt.Errorf("bank: insufficient funds: %w", common.ErrRangeViolation)
	ErrInvalidAmount     = fmt.Errorf("bank: amount must be positive: %w", common.ErrRangeViolation)
	ErrZeroAddress       = fmt.Errorf("bank: zero address: %w", common.ErrPreconditionViolation)
)

type engineState interface {
	BankBalanceGet(addr [20]byte) (*big.Int, error)
	BankBalancePut(addr [20]byte, amount *big.Int) error
	Atomic(fn func() error) error
}

// Engine keeps the base-currency balances contributions are paid from.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a bank engine.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

// BalanceOf returns the currency balance of addr.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.BankBalanceGet(addr)
}

// Credit adds amount to addr. It is used to seed balances at bootstrap.
func (e *Engine) Credit(addr [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.Atomic(func() error {
		if addr == ([20]byte{}) {
			return ErrZeroAddress
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		balance, err := e.state.BankBalanceGet(addr)
		if err != nil {
			return err
		}
		updated, err := common.Add(balance, amount)
		if err != nil {
			return err
		}
		if err := e.state.BankBalancePut(addr, updated); err != nil {
			return err
		}
		e.emit(&types.Event{
			Type: EventTypeCredited,
			Attributes: map[string]string{
				"account": crypto.FormatAddress(addr),
				"amount":  amount.String(),
			},
		})
		return nil
	})
}

// Transfer moves amount from from to to.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.Atomic(func() error {
		if from == ([20]byte{}) || to == ([20]byte{}) {
			return ErrZeroAddress
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		fromBalance, err := e.state.BankBalanceGet(from)
		if err != nil {
			return err
		}
		if fromBalance.Cmp(amount) < 0 {
			return ErrInsufficientFunds
		}
		if err := e.state.BankBalancePut(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		toBalance, err := e.state.BankBalanceGet(to)
		if err != nil {
			return err
		}
		credited, err := common.Add(toBalance, amount)
		if err != nil {
			return err
		}
		if err := e.state.BankBalancePut(to, credited); err != nil {
			return err
		}
		e.emit(&types.Event{
			Type: EventTypeTransferred,
			Attributes: map[string]string{
				"from":   crypto.FormatAddress(from),
				"to":     crypto.FormatAddress(to),
				"amount": amount.String(),
			},
		})
		return nil
	})
}
