package scheduler

import (
	"fmt"
	"time"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/native/common"
)

var (
	errNilState             = fmt.Errorf("scheduler: state not configured: %w", common.ErrResourceUnavailable)
	ErrAlreadyRegistered    = fmt.Errorf("scheduler: schedule already registered: %w", common.ErrStateConflict)
	ErrNotRegistered        = fmt.Errorf("scheduler: schedule not registered: %w", common.ErrPreconditionViolation)
	ErrZeroInterval         = fmt.Errorf("scheduler: interval must be positive: %w", common.ErrRangeViolation)
	ErrCallbackNotAvailable = fmt.Errorf("scheduler: callback not bound: %w", common.ErrResourceUnavailable)
)

type engineState interface {
	SchedulerGet(id string) (*Schedule, bool, error)
	SchedulerPut(id string, schedule *Schedule) error
}

// Engine fires a registered callback once per whole elapsed interval. It has
// no timer: intervals are caught up lazily whenever Gate runs.
type Engine struct {
	id       string
	state    engineState
	emitter  events.Emitter
	nowFn    func() uint64
	callback Callback
}

// NewEngine constructs a scheduler persisted under id.
func NewEngine(id string) *Engine {
	return &Engine{
		id:      id,
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

func (e *Engine) load() (*Schedule, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	schedule, ok, err := e.state.SchedulerGet(e.id)
	if err != nil {
		return nil, err
	}
	if !ok || schedule == nil {
		return &Schedule{}, nil
	}
	return schedule, nil
}

// Register persists a new schedule starting now and binds cb to it. It can
// only succeed once per schedule id.
func (e *Engine) Register(interval uint64, cb Callback) error {
	schedule, err := e.load()
	if err != nil {
		return err
	}
	if schedule.Registered {
		return ErrAlreadyRegistered
	}
	if interval == 0 {
		return ErrZeroInterval
	}
	schedule = &Schedule{
		LastUpdate: e.now(),
		Interval:   interval,
		Registered: true,
	}
	if err := e.state.SchedulerPut(e.id, schedule); err != nil {
		return err
	}
	e.callback = cb
	e.emit(IntervalRegisteredEvent(e.id, schedule.Interval, schedule.LastUpdate))
	return nil
}

// Bind attaches cb to an already persisted schedule, e.g. after a restart.
func (e *Engine) Bind(cb Callback) { e.callback = cb }

// Enable turns gating on. Time elapsed before enabling is never credited.
func (e *Engine) Enable() error {
	schedule, err := e.load()
	if err != nil {
		return err
	}
	if !schedule.Registered {
		return ErrNotRegistered
	}
	if schedule.Enabled {
		return nil
	}
	schedule.Enabled = true
	schedule.LastUpdate = e.now()
	return e.state.SchedulerPut(e.id, schedule)
}

// Gate runs the callback once for every whole interval elapsed since the last
// update and advances LastUpdate by exactly the consumed intervals. The
// fractional remainder carries over. It returns the number of intervals
// processed.
func (e *Engine) Gate() (uint64, error) {
	schedule, err := e.load()
	if err != nil {
		return 0, err
	}
	if !schedule.Registered || !schedule.Enabled {
		return 0, nil
	}
	elapsed := schedule.Elapsed(e.now())
	if elapsed == 0 {
		return 0, nil
	}
	if e.callback == nil {
		return 0, ErrCallbackNotAvailable
	}
	// A long dormancy makes this loop proportionally long.
	for i := uint64(0); i < elapsed; i++ {
		if err := e.callback(); err != nil {
			return 0, fmt.Errorf("scheduler: interval %d of %d: %w", i+1, elapsed, err)
		}
	}
	schedule.LastUpdate += elapsed * schedule.Interval
	if err := e.state.SchedulerPut(e.id, schedule); err != nil {
		return 0, err
	}
	e.emit(IntervalsProcessedEvent(e.id, elapsed, schedule.LastUpdate))
	return elapsed, nil
}

// Schedule returns a copy of the persisted schedule.
func (e *Engine) Schedule() (*Schedule, error) {
	schedule, err := e.load()
	if err != nil {
		return nil, err
	}
	return schedule.Clone(), nil
}

// Pending reports how many intervals the next Gate would process.
func (e *Engine) Pending() (uint64, error) {
	schedule, err := e.load()
	if err != nil {
		return 0, err
	}
	if !schedule.Registered || !schedule.Enabled {
		return 0, nil
	}
	return schedule.Elapsed(e.now()), nil
}
