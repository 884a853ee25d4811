package vault

import "math/big"

// Status represents the lifecycle of the escrow vault.
type Status uint8

const (
	StatusActive Status = iota
	StatusRefunding
	StatusClosed
)

// String renders the status for events and API responses.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRefunding:
		return "refunding"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// State is the persisted vault record. Custody is the bank account holding
// deposited funds until they are released or refunded.
type State struct {
	Status      Status
	Owner       [20]byte
	Beneficiary [20]byte
	Custody     [20]byte
	Deposited   *big.Int
	Deployed    bool
}

// Clone returns a deep copy of the vault state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Deposited != nil {
		clone.Deposited = new(big.Int).Set(s.Deposited)
	} else {
		clone.Deposited = big.NewInt(0)
	}
	return &clone
}
