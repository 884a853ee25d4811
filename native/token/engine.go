package token

import (
	"math/big"
	"time"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/native/common"
	"crowdsale/native/scheduler"
)

// ScheduleID is the scheduler record owned by the token.
const ScheduleID = "token"

type engineState interface {
	TokenMetadataGet() (*Metadata, bool, error)
	TokenMetadataPut(meta *Metadata) error
	TokenBalanceGet(addr [20]byte) (*big.Int, error)
	TokenBalancePut(addr [20]byte, amount *big.Int) error
	TokenAllowanceGet(owner, spender [20]byte) (*big.Int, error)
	TokenAllowancePut(owner, spender [20]byte, amount *big.Int) error
	TokenGrantsGet(holder [20]byte) ([]Grant, error)
	TokenGrantsPut(holder [20]byte, grants []Grant) error
	SchedulerGet(id string) (*scheduler.Schedule, bool, error)
	SchedulerPut(id string, schedule *scheduler.Schedule) error
	Atomic(fn func() error) error
}

// Engine is the asset ledger. It composes a mint authority, a transfer
// policy, a vesting ledger and the interval scheduler that drives inflation.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	nowFn     func() uint64
	scheduler *scheduler.Engine
	minter    mintAuthority
	policy    transferPolicy
	vesting   vestingLedger
}

// NewEngine constructs a token engine with the inflation callback bound to
// its scheduler.
func NewEngine() *Engine {
	e := &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() uint64 { return uint64(time.Now().Unix()) },
		scheduler: scheduler.NewEngine(ScheduleID),
	}
	e.scheduler.Bind(e.inflate)
	return e
}

// SetState configures the state backend used by the engine and its scheduler.
func (e *Engine) SetState(state engineState) {
	e.state = state
	e.minter = mintAuthority{state: state}
	e.vesting = vestingLedger{state: state}
	e.scheduler.SetState(state)
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
	e.scheduler.SetEmitter(emitter)
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	e.nowFn = now
	e.scheduler.SetNowFunc(now)
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) atomic(fn func() error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.Atomic(fn)
}

func (e *Engine) metadata() (*Metadata, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, ok, err := e.state.TokenMetadataGet()
	if err != nil {
		return nil, err
	}
	if !ok || meta == nil || !meta.Deployed {
		return nil, ErrNotDeployed
	}
	if meta.TotalSupply == nil {
		meta.TotalSupply = big.NewInt(0)
	}
	return meta, nil
}

func (e *Engine) ownerOnly(caller [20]byte) (*Metadata, error) {
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	if caller != meta.Owner {
		return nil, ErrUnauthorized
	}
	return meta, nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Deploy creates the token owned by owner and registers the inflation
// schedule. The schedule stays disabled until EnableSchedule.
func (e *Engine) Deploy(owner [20]byte, params Params) error {
	return e.atomic(func() error {
		if _, ok, err := e.state.TokenMetadataGet(); err != nil {
			return err
		} else if ok {
			return ErrAlreadyDeployed
		}
		if owner == ([20]byte{}) {
			return ErrZeroAddress
		}
		params = params.normalized()
		if params.Name == "" || params.Symbol == "" {
			return ErrInvalidMetadata
		}
		if params.InflationBps > 0 && params.RewardDestination == ([20]byte{}) {
			return ErrZeroAddress
		}
		meta := &Metadata{
			Name:              params.Name,
			Symbol:            params.Symbol,
			Decimals:          params.Decimals,
			Owner:             owner,
			TotalSupply:       big.NewInt(0),
			RewardDestination: params.RewardDestination,
			InflationBps:      params.InflationBps,
			Deployed:          true,
		}
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		return e.scheduler.Register(params.InflationInterval, e.inflate)
	})
}

// inflate is the scheduler callback. It mints one interval of inflation to
// the reward destination regardless of MintingFinished.
func (e *Engine) inflate() error {
	meta, err := e.metadata()
	if err != nil {
		return err
	}
	amount, err := inflation(meta)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := e.minter.issue(meta, meta.RewardDestination, amount); err != nil {
		return err
	}
	if err := e.state.TokenMetadataPut(meta); err != nil {
		return err
	}
	e.emit(mintEvent(meta.RewardDestination, amount, events.SupplyReasonInflation))
	e.emitter.Emit(events.TokenSupply{
		Token:  meta.Symbol,
		Total:  meta.TotalSupply,
		Delta:  amount,
		Reason: events.SupplyReasonInflation,
	})
	return nil
}

// Mint issues amount new units to to. Only the owner may mint and only while
// minting is open.
func (e *Engine) Mint(caller, to [20]byte, amount *big.Int) error {
	return e.atomic(func() error {
		meta, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if meta.MintingFinished {
			return ErrMintingClosed
		}
		if to == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		if err := e.minter.issue(meta, to, amount); err != nil {
			return err
		}
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		e.emit(mintEvent(to, amount, events.SupplyReasonMint))
		e.emitter.Emit(events.TokenSupply{
			Token:  meta.Symbol,
			Total:  meta.TotalSupply,
			Delta:  amount,
			Reason: events.SupplyReasonMint,
		})
		return nil
	})
}

// FinishMinting permanently closes owner minting. Scheduler inflation keeps
// running.
func (e *Engine) FinishMinting(caller [20]byte) error {
	return e.atomic(func() error {
		meta, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if meta.MintingFinished {
			return ErrMintingClosed
		}
		meta.MintingFinished = true
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		e.emit(mintFinishedEvent(meta.Symbol))
		return nil
	})
}

// Release lifts the transfer lock. It is one-way.
func (e *Engine) Release(caller [20]byte) error {
	return e.atomic(func() error {
		meta, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if meta.Released {
			return ErrAlreadyReleased
		}
		meta.Released = true
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		e.emit(releasedEvent(meta.Symbol, e.now()))
		return nil
	})
}

// EnableSchedule turns on the inflation scheduler.
func (e *Engine) EnableSchedule(caller [20]byte) error {
	return e.atomic(func() error {
		if _, err := e.ownerOnly(caller); err != nil {
			return err
		}
		return e.scheduler.Enable()
	})
}

// TransferOwnership hands every privileged operation to next.
func (e *Engine) TransferOwnership(caller, next [20]byte) error {
	return e.atomic(func() error {
		meta, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		if next == ([20]byte{}) {
			return ErrZeroAddress
		}
		previous := meta.Owner
		meta.Owner = next
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		e.emit(ownershipEvent(previous, next))
		return nil
	})
}

// Rename updates the display name and symbol.
func (e *Engine) Rename(caller [20]byte, name, symbol string) error {
	return e.atomic(func() error {
		meta, err := e.ownerOnly(caller)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		symbol = normalizeSymbol(symbol)
		if name == "" || symbol == "" {
			return ErrInvalidMetadata
		}
		meta.Name = name
		meta.Symbol = symbol
		if err := e.state.TokenMetadataPut(meta); err != nil {
			return err
		}
		e.emit(renamedEvent(name, symbol))
		return nil
	})
}

// admit runs the transfer-class guards in order: scheduler gate, release flag,
// then the sender's plain and vested balance when amount is non-nil. The
// metadata is read after the gate so inflation minted by it is visible.
func (e *Engine) admit(from [20]byte, amount *big.Int, privileged bool) (*Metadata, error) {
	if _, err := e.metadata(); err != nil {
		return nil, err
	}
	if _, err := e.scheduler.Gate(); err != nil {
		return nil, err
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	var balance, transferable *big.Int
	if amount != nil {
		if balance, err = e.state.TokenBalanceGet(from); err != nil {
			return nil, err
		}
		if transferable, err = e.vesting.transferable(from, balance, e.now()); err != nil {
			return nil, err
		}
	}
	if err := e.policy.admit(meta.Released, privileged, amount, balance, transferable); err != nil {
		return nil, err
	}
	return meta, nil
}

func (e *Engine) move(from, to [20]byte, amount *big.Int) error {
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	fromBalance, err := e.state.TokenBalanceGet(from)
	if err != nil {
		return err
	}
	remaining, err := common.Sub(fromBalance, amount)
	if err != nil {
		return ErrInsufficientBalance
	}
	if err := e.state.TokenBalancePut(from, remaining); err != nil {
		return err
	}
	toBalance, err := e.state.TokenBalanceGet(to)
	if err != nil {
		return err
	}
	credited, err := common.Add(toBalance, amount)
	if err != nil {
		return err
	}
	if err := e.state.TokenBalancePut(to, credited); err != nil {
		return err
	}
	e.emit(transferEvent(from, to, amount))
	return nil
}

// Transfer moves amount from caller to to.
func (e *Engine) Transfer(caller, to [20]byte, amount *big.Int) error {
	return e.atomic(func() error {
		if caller == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		if _, err := e.admit(caller, amount, false); err != nil {
			return err
		}
		return e.move(caller, to, amount)
	})
}

// TransferFrom moves amount from from to to using caller's allowance.
func (e *Engine) TransferFrom(caller, from, to [20]byte, amount *big.Int) error {
	return e.atomic(func() error {
		if caller == ([20]byte{}) || from == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		if _, err := e.admit(from, amount, false); err != nil {
			return err
		}
		allowance, err := e.state.TokenAllowanceGet(from, caller)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		if err := e.state.TokenAllowancePut(from, caller, new(big.Int).Sub(allowance, amount)); err != nil {
			return err
		}
		return e.move(from, to, amount)
	})
}

func (e *Engine) setAllowance(owner, spender [20]byte, amount *big.Int) error {
	if err := e.state.TokenAllowancePut(owner, spender, amount); err != nil {
		return err
	}
	e.emit(approvalEvent(owner, spender, amount))
	return nil
}

// Approve sets spender's allowance over caller's balance to amount.
func (e *Engine) Approve(caller, spender [20]byte, amount *big.Int) error {
	return e.atomic(func() error {
		if caller == ([20]byte{}) || spender == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		if _, err := e.admit(caller, nil, false); err != nil {
			return err
		}
		return e.setAllowance(caller, spender, amount)
	})
}

// IncreaseApproval raises spender's allowance by delta.
func (e *Engine) IncreaseApproval(caller, spender [20]byte, delta *big.Int) error {
	return e.atomic(func() error {
		if caller == ([20]byte{}) || spender == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(delta); err != nil {
			return err
		}
		if _, err := e.admit(caller, nil, false); err != nil {
			return err
		}
		current, err := e.state.TokenAllowanceGet(caller, spender)
		if err != nil {
			return err
		}
		updated, err := common.Add(current, delta)
		if err != nil {
			return err
		}
		return e.setAllowance(caller, spender, updated)
	})
}

// DecreaseApproval lowers spender's allowance by delta, flooring at zero.
func (e *Engine) DecreaseApproval(caller, spender [20]byte, delta *big.Int) error {
	return e.atomic(func() error {
		if caller == ([20]byte{}) || spender == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validAmount(delta); err != nil {
			return err
		}
		if _, err := e.admit(caller, nil, false); err != nil {
			return err
		}
		current, err := e.state.TokenAllowanceGet(caller, spender)
		if err != nil {
			return err
		}
		updated := new(big.Int).Sub(current, delta)
		if updated.Sign() < 0 {
			updated.SetInt64(0)
		}
		return e.setAllowance(caller, spender, updated)
	})
}

// GrantVestedTokens moves value from caller to to and attaches a vesting
// grant restricting how much of it to may transfer. Only the owner may grant;
// the transfer lock does not apply.
func (e *Engine) GrantVestedTokens(caller, to [20]byte, value *big.Int, start, cliff, vesting uint64, revocable, burnable bool) error {
	return e.atomic(func() error {
		if _, err := e.ownerOnly(caller); err != nil {
			return err
		}
		if to == ([20]byte{}) {
			return ErrZeroAddress
		}
		grant := Grant{
			Granter:   caller,
			Value:     cloneAmount(value),
			Start:     start,
			Cliff:     cliff,
			Vesting:   vesting,
			Revocable: revocable,
			Burnable:  burnable,
		}
		if err := validateGrant(&grant); err != nil {
			return err
		}
		if _, err := e.admit(caller, grant.Value, true); err != nil {
			return err
		}
		index, err := e.vesting.add(to, grant)
		if err != nil {
			return err
		}
		if err := e.move(caller, to, grant.Value); err != nil {
			return err
		}
		e.emit(grantEvent(to, &grant, index))
		return nil
	})
}

// RevokeTokenGrant cancels a revocable grant. Only its granter may revoke it.
// The portion not yet vested returns to the granter, or is burned when the
// grant is burnable.
func (e *Engine) RevokeTokenGrant(caller, holder [20]byte, index int) error {
	return e.atomic(func() error {
		meta, err := e.metadata()
		if err != nil {
			return err
		}
		grants, err := e.vesting.grants(holder)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(grants) {
			return ErrGrantNotFound
		}
		grant := grants[index]
		if !grant.Revocable || grant.Granter != caller {
			return ErrGrantNotRevocable
		}
		locked := grant.NonVestedAt(e.now())
		if err := e.vesting.remove(holder, index); err != nil {
			return err
		}
		receiver := caller
		if grant.Burnable {
			receiver = [20]byte{}
			if err := e.minter.burn(meta, holder, locked); err != nil {
				return err
			}
			if err := e.state.TokenMetadataPut(meta); err != nil {
				return err
			}
			e.emitter.Emit(events.TokenSupply{
				Token:  meta.Symbol,
				Total:  meta.TotalSupply,
				Delta:  new(big.Int).Neg(locked),
				Reason: events.SupplyReasonBurn,
			})
		} else if err := e.move(holder, receiver, locked); err != nil {
			return err
		}
		e.emit(grantRevokedEvent(holder, receiver, index, locked, grant.Burnable))
		return nil
	})
}

// Token returns a copy of the token metadata.
func (e *Engine) Token() (*Metadata, error) {
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	return meta.Clone(), nil
}

// TotalSupply returns the number of units in existence.
func (e *Engine) TotalSupply() (*big.Int, error) {
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	return cloneAmount(meta.TotalSupply), nil
}

// BalanceOf returns the balance held by addr.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenBalanceGet(addr)
}

// Allowance returns how much spender may move on behalf of owner.
func (e *Engine) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenAllowanceGet(owner, spender)
}

// TransferableTokens returns the part of holder's balance that is vested and
// unlocked at ts.
func (e *Engine) TransferableTokens(holder [20]byte, ts uint64) (*big.Int, error) {
	balance, err := e.BalanceOf(holder)
	if err != nil {
		return nil, err
	}
	return e.vesting.transferable(holder, balance, ts)
}

// Grants returns the vesting grants attached to holder.
func (e *Engine) Grants(holder [20]byte) ([]Grant, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	grants, err := e.vesting.grants(holder)
	if err != nil {
		return nil, err
	}
	out := make([]Grant, len(grants))
	for i := range grants {
		out[i] = *grants[i].Clone()
	}
	return out, nil
}

// Schedule returns the inflation schedule.
func (e *Engine) Schedule() (*scheduler.Schedule, error) {
	return e.scheduler.Schedule()
}
