package sale

import (
	"math/big"
)

// Phase is the lifecycle stage of the sale. The numeric order matches the
// order phases are traversed in.
type Phase uint8

const (
	PhasePreparePreSale Phase = iota
	PhasePreSale
	PhasePrepareSale
	PhaseSale
	PhaseAuditing
	PhaseFinalized
	PhaseRefunding
)

// Terminal reports whether no transition can leave the phase.
func (p Phase) Terminal() bool {
	return p == PhaseFinalized || p == PhaseRefunding
}

// String renders the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePreparePreSale:
		return "PreparePreSale"
	case PhasePreSale:
		return "PreSale"
	case PhasePrepareSale:
		return "PrepareSale"
	case PhaseSale:
		return "Sale"
	case PhaseAuditing:
		return "Auditing"
	case PhaseFinalized:
		return "Finalized"
	case PhaseRefunding:
		return "Refunding"
	default:
		return "Unknown"
	}
}

// Tier is a participant's verification level.
type Tier uint8

const (
	TierNone Tier = iota
	TierSMSVerified
	TierKYCVerified
)

// String renders the tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierSMSVerified:
		return "sms"
	case TierKYCVerified:
		return "kyc"
	default:
		return "unknown"
	}
}

// Window is a contribution window. Rate is the number of token units minted
// per unit of base currency.
type Window struct {
	Rate  uint64
	Start uint64
	End   uint64
}

// Config holds both contribution windows.
type Config struct {
	PreSale Window
	Sale    Window
}

// Limits are fixed at deployment.
type Limits struct {
	MinContribution     *big.Int
	MaxUnverified       *big.Int
	MaxSMSVerified      *big.Int
	SMSBonusBps         uint64
	KYCBonusBps         uint64
	Cap                 *big.Int
	TeamBonusCeilingBps uint64
}

// Clone returns a deep copy of the limits.
func (l Limits) Clone() Limits {
	l.MinContribution = cloneAmount(l.MinContribution)
	l.MaxUnverified = cloneAmount(l.MaxUnverified)
	l.MaxSMSVerified = cloneAmount(l.MaxSMSVerified)
	l.Cap = cloneAmount(l.Cap)
	return l
}

// BonusBps returns the bonus rate applied to the tier.
func (l Limits) BonusBps(tier Tier) uint64 {
	switch tier {
	case TierSMSVerified:
		return l.SMSBonusBps
	case TierKYCVerified:
		return l.KYCBonusBps
	default:
		return 0
	}
}

// Ceiling returns the cumulative contribution ceiling for the tier. A nil
// ceiling means unlimited.
func (l Limits) Ceiling(tier Tier) *big.Int {
	switch tier {
	case TierSMSVerified:
		return l.MaxSMSVerified
	case TierNone:
		return l.MaxUnverified
	default:
		return nil
	}
}

// Totals are the cumulative sale counters.
type Totals struct {
	UnitsSold          *big.Int
	Raised             *big.Int
	PreSaleRaised      *big.Int
	Refunded           *big.Int
	Contributors       uint64
	TeamBonusAllocated *big.Int
}

// Clone returns a deep copy of the totals.
func (t Totals) Clone() Totals {
	t.UnitsSold = cloneAmount(t.UnitsSold)
	t.Raised = cloneAmount(t.Raised)
	t.PreSaleRaised = cloneAmount(t.PreSaleRaised)
	t.Refunded = cloneAmount(t.Refunded)
	t.TeamBonusAllocated = cloneAmount(t.TeamBonusAllocated)
	return t
}

// Audit records the auditor's verdict. An empty comment means no audit yet.
type Audit struct {
	Fulfilled bool
	Comment   string
}

// Present reports whether the audit has been recorded.
func (a Audit) Present() bool { return a.Comment != "" }

// Participant is the per-contributor record. Tier is derived on demand.
type Participant struct {
	Contributed *big.Int
	KYC         bool
}

// Clone returns a deep copy of the participant.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return &Participant{Contributed: big.NewInt(0)}
	}
	clone := *p
	clone.Contributed = cloneAmount(p.Contributed)
	return &clone
}

// TeamBonusEntry is a proportional vested allocation paid out at finalize.
type TeamBonusEntry struct {
	Beneficiary [20]byte
	ShareBps    uint64
	Cliff       uint64
	VestingEnd  uint64
}

// Record is the persisted sale record.
type Record struct {
	Phase    Phase
	Config   Config
	Limits   Limits
	Totals   Totals
	Audit    Audit
	Deployed bool
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Limits = r.Limits.Clone()
	clone.Totals = r.Totals.Clone()
	return &clone
}

// Receipt summarises an accepted contribution.
type Receipt struct {
	Participant [20]byte
	Amount      *big.Int
	Tokens      *big.Int
	Tier        Tier
	Phase       Phase
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
