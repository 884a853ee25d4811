package oracle

import (
	"fmt"

	"crowdsale/core/events"
	"crowdsale/core/types"
	"crowdsale/crypto"
	"crowdsale/native/common"
)

const (
	EventTypeCertified = "oracle.certified"
	EventTypeRevoked   = "oracle.revoked"
)

var (
	errNilState = fmt.Errorf("oracle: state not configured: %w", common.ErrResourceUnavailable)

	ErrUnauthorized = fmt.Errorf("oracle: caller is not the oracle operator: %w", common.ErrPreconditionViolation)
	ErrZeroAddress  = fmt.Errorf("oracle: zero address: %w", common.ErrPreconditionViolation)
	ErrUnavailable  = fmt.Errorf("oracle: verification service unavailable: %w", common.ErrResourceUnavailable)
)

// Certifier answers whether an identity passed phone verification.
type Certifier interface {
	Certified(addr [20]byte) (bool, error)
}

type registryState interface {
	OracleCertifiedGet(addr [20]byte) (bool, error)
	OracleCertifiedPut(addr [20]byte, certified bool) error
	Atomic(fn func() error) error
}

// Registry is a Certifier backed by state and maintained by a single operator.
type Registry struct {
	state    registryState
	emitter  events.Emitter
	operator [20]byte
}

// NewRegistry returns a registry administered by operator.
func NewRegistry(operator [20]byte) *Registry {
	return &Registry{operator: operator, emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	r.emitter = emitter
}

// Certified implements Certifier.
func (r *Registry) Certified(addr [20]byte) (bool, error) {
	if r == nil || r.state == nil {
		return false, errNilState
	}
	return r.state.OracleCertifiedGet(addr)
}

// Certify marks addr as verified.
func (r *Registry) Certify(caller, addr [20]byte) error {
	return r.set(caller, addr, true)
}

// Revoke clears the verification of addr.
func (r *Registry) Revoke(caller, addr [20]byte) error {
	return r.set(caller, addr, false)
}

func (r *Registry) set(caller, addr [20]byte, certified bool) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	return r.state.Atomic(func() error {
		if caller != r.operator {
			return ErrUnauthorized
		}
		if addr == ([20]byte{}) {
			return ErrZeroAddress
		}
		if err := r.state.OracleCertifiedPut(addr, certified); err != nil {
			return err
		}
		eventType := EventTypeCertified
		if !certified {
			eventType = EventTypeRevoked
		}
		r.emitter.Emit(events.Wrap(&types.Event{
			Type:       eventType,
			Attributes: map[string]string{"account": crypto.FormatAddress(addr)},
		}))
		return nil
	})
}
