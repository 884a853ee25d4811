package vault

import (
	"fmt"
	"math/big"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/native/common"
)

var (
	errNilState = fmt.Errorf("vault: state not configured: %w", common.ErrResourceUnavailable)

	ErrNotDeployed      = fmt.Errorf("vault: not deployed: %w", common.ErrPreconditionViolation)
	ErrAlreadyDeployed  = fmt.Errorf("vault: already deployed: %w", common.ErrStateConflict)
	ErrUnauthorized     = fmt.Errorf("vault: caller is not the owner: %w", common.ErrPreconditionViolation)
	ErrZeroAddress      = fmt.Errorf("vault: zero address: %w", common.ErrPreconditionViolation)
	ErrNotActive        = fmt.Errorf("vault: vault is no longer active: %w", common.ErrStateConflict)
	ErrNotRefunding     = fmt.Errorf("vault: refunds are not enabled: %w", common.ErrPreconditionViolation)
	ErrInvalidAmount    = fmt.Errorf("vault: amount must be positive: %w", common.ErrRangeViolation)
	ErrNothingDeposited = fmt.Errorf("vault: nothing deposited: %w", common.ErrStateConflict)
	ErrFundsUnavailable = fmt.Errorf("vault: funds transfer failed: %w", common.ErrResourceUnavailable)
)

type engineState interface {
	VaultGet() (*State, bool, error)
	VaultPut(st *State) error
	VaultDepositGet(payer [20]byte) (*big.Int, error)
	VaultDepositPut(payer [20]byte, amount *big.Int) error
	Atomic(fn func() error) error
}

// Funds moves base currency between accounts.
type Funds interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine custodies contributed funds until the owner either closes the vault
// in favour of the beneficiary or switches it into refund mode.
type Engine struct {
	state   engineState
	funds   Funds
	emitter events.Emitter
}

// NewEngine creates a vault engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFunds configures the currency ledger custody moves through.
func (e *Engine) SetFunds(funds Funds) { e.funds = funds }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(vaultEvent{evt: event})
}

func (e *Engine) atomic(fn func() error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.Atomic(fn)
}

func (e *Engine) load() (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	st, ok, err := e.state.VaultGet()
	if err != nil {
		return nil, err
	}
	if !ok || st == nil || !st.Deployed {
		return nil, ErrNotDeployed
	}
	if st.Deposited == nil {
		st.Deposited = big.NewInt(0)
	}
	return st, nil
}

func (e *Engine) ownerOnly(caller [20]byte) (*State, error) {
	st, err := e.load()
	if err != nil {
		return nil, err
	}
	if caller != st.Owner {
		return nil, ErrUnauthorized
	}
	return st, nil
}

func (e *Engine) move(from, to [20]byte, amount *big.Int) error {
	if e.funds == nil {
		return ErrFundsUnavailable
	}
	if err := e.funds.Transfer(from, to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrFundsUnavailable, err)
	}
	return nil
}

// Deploy creates an active vault.
func (e *Engine) Deploy(owner, beneficiary, custody [20]byte) error {
	return e.atomic(func() error {
		if _, ok, err := e.state.VaultGet(); err != nil {
			return err
		} else if ok {
			return ErrAlreadyDeployed
		}
		if owner == ([20]byte{}) || beneficiary == ([20]byte{}) || custody == ([20]byte{}) {
			return ErrZeroAddress
		}
		return e.state.VaultPut(&State{
			Status:      StatusActive,
			Owner:       owner,
			Beneficiary: beneficiary,
			Custody:     custody,
			Deposited:   big.NewInt(0),
			Deployed:    true,
		})
	})
}

// Deposit moves amount from payer into custody and credits it to payer.
func (e *Engine) Deposit(caller, payer [20]byte, amount *big.Int) error {
	return e.atomic(func() error {
		st, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if st.Status != StatusActive {
			return ErrNotActive
		}
		if payer == ([20]byte{}) {
			return ErrZeroAddress
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		deposited, err := e.state.VaultDepositGet(payer)
		if err != nil {
			return err
		}
		updated, err := common.Add(deposited, amount)
		if err != nil {
			return err
		}
		total, err := common.Add(st.Deposited, amount)
		if err != nil {
			return err
		}
		if err := e.move(payer, st.Custody, amount); err != nil {
			return err
		}
		if err := e.state.VaultDepositPut(payer, updated); err != nil {
			return err
		}
		st.Deposited = total
		if err := e.state.VaultPut(st); err != nil {
			return err
		}
		e.emit(NewDepositedEvent(payer, amount, updated))
		return nil
	})
}

// Close pays every custodied unit to the beneficiary. It is one-way and
// excludes EnableRefunds.
func (e *Engine) Close(caller [20]byte) error {
	return e.atomic(func() error {
		st, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if st.Status != StatusActive {
			return ErrNotActive
		}
		paid := new(big.Int).Set(st.Deposited)
		if paid.Sign() > 0 {
			if err := e.move(st.Custody, st.Beneficiary, paid); err != nil {
				return err
			}
		}
		st.Status = StatusClosed
		st.Deposited = big.NewInt(0)
		if err := e.state.VaultPut(st); err != nil {
			return err
		}
		e.emit(NewClosedEvent(st.Beneficiary, paid))
		return nil
	})
}

// EnableRefunds switches the vault into refund mode. It is one-way and
// excludes Close.
func (e *Engine) EnableRefunds(caller [20]byte) error {
	return e.atomic(func() error {
		st, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if st.Status != StatusActive {
			return ErrNotActive
		}
		st.Status = StatusRefunding
		if err := e.state.VaultPut(st); err != nil {
			return err
		}
		e.emit(NewRefundsEnabledEvent(st.Deposited))
		return nil
	})
}

// Refund pays payee everything deposited on its behalf and returns the
// amount.
func (e *Engine) Refund(payee [20]byte) (*big.Int, error) {
	var refunded *big.Int
	err := e.atomic(func() error {
		st, err := e.load()
		if err != nil {
			return err
		}
		if st.Status != StatusRefunding {
			return ErrNotRefunding
		}
		deposited, err := e.state.VaultDepositGet(payee)
		if err != nil {
			return err
		}
		if deposited.Sign() == 0 {
			return ErrNothingDeposited
		}
		remaining, err := common.Sub(st.Deposited, deposited)
		if err != nil {
			return err
		}
		if err := e.move(st.Custody, payee, deposited); err != nil {
			return err
		}
		if err := e.state.VaultDepositPut(payee, nil); err != nil {
			return err
		}
		st.Deposited = remaining
		if err := e.state.VaultPut(st); err != nil {
			return err
		}
		e.emit(NewRefundedEvent(payee, deposited))
		refunded = deposited
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refunded, nil
}

// DepositedBalance returns the amount held on behalf of addr.
func (e *Engine) DepositedBalance(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.VaultDepositGet(addr)
}

// Status returns the current vault status.
func (e *Engine) Status() (Status, error) {
	st, err := e.load()
	if err != nil {
		return StatusActive, err
	}
	return st.Status, nil
}

// State returns a copy of the vault record.
func (e *Engine) State() (*State, error) {
	st, err := e.load()
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}
