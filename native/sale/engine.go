package sale

import (
	"math/big"
	"time"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/native/common"
	"crowdsale/native/token"
)

// ModuleName is the pause flag key of the sale.
const ModuleName = "sale"

// Roles are the fixed privileged identities of the sale.
type Roles struct {
	Operator     [20]byte
	Board        [20]byte
	Auditor      [20]byte
	KYCConfirmer [20]byte
}

// Ledger is the part of the asset ledger the sale drives. The sale address
// must own the ledger until finalize hands it to the operator.
type Ledger interface {
	Token() (*token.Metadata, error)
	BalanceOf(addr [20]byte) (*big.Int, error)
	Mint(caller, to [20]byte, amount *big.Int) error
	FinishMinting(caller [20]byte) error
	Release(caller [20]byte) error
	EnableSchedule(caller [20]byte) error
	TransferOwnership(caller, next [20]byte) error
	Rename(caller [20]byte, name, symbol string) error
	GrantVestedTokens(caller, to [20]byte, value *big.Int, start, cliff, vesting uint64, revocable, burnable bool) error
}

// Vault custodies contributions until finalize or refunds.
type Vault interface {
	Deposit(caller, payer [20]byte, amount *big.Int) error
	Close(caller [20]byte) error
	EnableRefunds(caller [20]byte) error
	Refund(payee [20]byte) (*big.Int, error)
	DepositedBalance(addr [20]byte) (*big.Int, error)
}

// Certifier reports whether an identity passed phone verification.
type Certifier interface {
	Certified(addr [20]byte) (bool, error)
}

type engineState interface {
	SaleRecordGet() (*Record, bool, error)
	SaleRecordPut(record *Record) error
	SaleParticipantGet(addr [20]byte) (*Participant, error)
	SaleParticipantPut(addr [20]byte, participant *Participant) error
	SaleTeamBonusGet() ([]TeamBonusEntry, error)
	SaleTeamBonusPut(entries []TeamBonusEntry) error
	IsPaused(module string) (bool, error)
	SetPaused(module string, paused bool) error
	Atomic(fn func() error) error
}

// Engine is the sale state machine. Its phase is derived from the clock and
// the units sold on every state-changing call.
type Engine struct {
	address   [20]byte
	roles     Roles
	state     engineState
	ledger    Ledger
	vault     Vault
	certifier Certifier
	emitter   events.Emitter
	nowFn     func() uint64
}

// NewEngine constructs a sale acting as address. address owns the ledger and
// the vault.
func NewEngine(address [20]byte, roles Roles) *Engine {
	return &Engine{
		address: address,
		roles:   roles,
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the asset ledger.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetVault configures the escrow vault.
func (e *Engine) SetVault(vault Vault) { e.vault = vault }

// SetCertifier configures the verification oracle.
func (e *Engine) SetCertifier(certifier Certifier) { e.certifier = certifier }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
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

func (e *Engine) load() (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.SaleRecordGet()
	if err != nil {
		return nil, err
	}
	if !ok || record == nil || !record.Deployed {
		return nil, ErrNotDeployed
	}
	record.Limits = record.Limits.Clone()
	record.Totals = record.Totals.Clone()
	return record, nil
}

// loadGated loads the record, checks the caller's role and advances the
// phase.
func (e *Engine) loadGated(caller, role [20]byte) (*Record, error) {
	if caller == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	if caller != role {
		return nil, ErrUnauthorized
	}
	if err := e.advance(record); err != nil {
		return nil, err
	}
	return record, nil
}

// advance re-derives the phase and persists it when it changed.
func (e *Engine) advance(record *Record) error {
	now := e.now()
	next := DerivePhase(now, record.Totals.UnitsSold, record.Limits.Cap, record.Config, record.Phase)
	if next == record.Phase {
		return nil
	}
	return e.setPhase(record, next, !capReached(record.Totals.UnitsSold, record.Limits.Cap))
}

func (e *Engine) setPhase(record *Record, next Phase, timed bool) error {
	from := record.Phase
	record.Phase = next
	if err := e.state.SaleRecordPut(record); err != nil {
		return err
	}
	now := e.now()
	e.emit(phaseChangedEvent(from, next, now))
	if timed {
		e.emit(transitionTimedEvent(next, now))
	}
	return nil
}

// Deploy persists the sale configuration. The ledger must already be owned by
// the sale address.
func (e *Engine) Deploy(cfg Config, limits Limits) error {
	return e.atomic(func() error {
		if _, ok, err := e.state.SaleRecordGet(); err != nil {
			return err
		} else if ok {
			return ErrAlreadyDeployed
		}
		if e.address == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := validateConfig(cfg, e.now()); err != nil {
			return err
		}
		if err := validateLimits(limits); err != nil {
			return err
		}
		if e.ledger == nil || e.vault == nil {
			return errNilState
		}
		meta, err := e.ledger.Token()
		if err != nil {
			return err
		}
		if meta.Owner != e.address {
			return ErrLedgerNotOwned
		}
		record := &Record{
			Phase:    PhasePreparePreSale,
			Config:   cfg,
			Limits:   limits.Clone(),
			Totals:   Totals{}.Clone(),
			Deployed: true,
		}
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(tokenAssignedEvent(e.address, meta.Name, meta.Symbol))
		return e.advance(record)
	})
}

// Advance re-derives and persists the phase. It lets timed transitions take
// effect without any other call.
func (e *Engine) Advance() (Phase, error) {
	var phase Phase
	err := e.atomic(func() error {
		record, err := e.load()
		if err != nil {
			return err
		}
		if err := e.advance(record); err != nil {
			return err
		}
		phase = record.Phase
		return nil
	})
	return phase, err
}

// tier derives the verification tier of addr.
func (e *Engine) tier(addr [20]byte, participant *Participant) (Tier, error) {
	if participant != nil && participant.KYC {
		return TierKYCVerified, nil
	}
	if e.certifier == nil {
		return TierNone, nil
	}
	certified, err := e.certifier.Certified(addr)
	if err != nil {
		return TierNone, ErrVerificationFailed
	}
	if certified {
		return TierSMSVerified, nil
	}
	return TierNone, nil
}

// Address returns the identity the sale acts as.
func (e *Engine) Address() [20]byte { return e.address }

// Roles returns the configured privileged identities.
func (e *Engine) Roles() Roles { return e.roles }

// Phase returns the phase a state-changing call made now would observe.
func (e *Engine) Phase() (Phase, error) {
	record, err := e.load()
	if err != nil {
		return PhasePreparePreSale, err
	}
	return DerivePhase(e.now(), record.Totals.UnitsSold, record.Limits.Cap, record.Config, record.Phase), nil
}

// Config returns the contribution windows.
func (e *Engine) Config() (Config, error) {
	record, err := e.load()
	if err != nil {
		return Config{}, err
	}
	return record.Config, nil
}

// Limits returns the deployment limits.
func (e *Engine) Limits() (Limits, error) {
	record, err := e.load()
	if err != nil {
		return Limits{}, err
	}
	return record.Limits, nil
}

// Totals returns the cumulative counters.
func (e *Engine) Totals() (Totals, error) {
	record, err := e.load()
	if err != nil {
		return Totals{}, err
	}
	return record.Totals, nil
}

// Audit returns the recorded audit verdict.
func (e *Engine) Audit() (Audit, error) {
	record, err := e.load()
	if err != nil {
		return Audit{}, err
	}
	return record.Audit, nil
}

// Participant returns the participant record of addr.
func (e *Engine) Participant(addr [20]byte) (*Participant, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	participant, err := e.state.SaleParticipantGet(addr)
	if err != nil {
		return nil, err
	}
	return participant.Clone(), nil
}

// Tier returns the verification tier addr would contribute at now.
func (e *Engine) Tier(addr [20]byte) (Tier, error) {
	participant, err := e.Participant(addr)
	if err != nil {
		return TierNone, err
	}
	return e.tier(addr, participant)
}

// Paused reports whether contributions are paused.
func (e *Engine) Paused() (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.IsPaused(ModuleName)
}

func (e *Engine) guard() error {
	return common.Guard(e.state, ModuleName)
}
