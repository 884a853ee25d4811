package token

import (
	"math/big"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxGrantsPerHolder bounds the number of vesting grants a single holder may
// carry. Transferable balance computation iterates every grant.
const MaxGrantsPerHolder = 20

// Metadata is the persisted token record.
type Metadata struct {
	Name              string
	Symbol            string
	Decimals          uint8
	Owner             [20]byte
	MintingFinished   bool
	Released          bool
	TotalSupply       *big.Int
	RewardDestination [20]byte
	InflationBps      uint64
	Deployed          bool
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	clone := *m
	clone.TotalSupply = cloneAmount(m.TotalSupply)
	return &clone
}

// Params configures a token at deployment.
type Params struct {
	Name              string
	Symbol            string
	Decimals          uint8
	RewardDestination [20]byte
	InflationBps      uint64
	// InflationInterval is the scheduler interval in seconds.
	InflationInterval uint64
}

func (p Params) normalized() Params {
	p.Name = normalizeName(p.Name)
	p.Symbol = normalizeSymbol(p.Symbol)
	return p
}

// Names are stored in NFC so visually identical inputs compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(normalizeName(symbol))
}

// Grant is a vesting grant attached to a holder's balance. Start, Cliff and
// Vesting are unix seconds with Start <= Cliff <= Vesting.
type Grant struct {
	Granter   [20]byte
	Value     *big.Int
	Start     uint64
	Cliff     uint64
	Vesting   uint64
	Revocable bool
	Burnable  bool
}

// Clone returns a deep copy of the grant.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	clone := *g
	clone.Value = cloneAmount(g.Value)
	return &clone
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
