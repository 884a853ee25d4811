package core

import (
	"math/big"

	"crowdsale/core/types"
	"crowdsale/native/sale"
	"crowdsale/native/token"
	"crowdsale/native/vault"
)

// SaleStatus is a consistent snapshot of the sale.
type SaleStatus struct {
	Address [20]byte
	Phase   sale.Phase
	Paused  bool
	Config  sale.Config
	Limits  sale.Limits
	Totals  sale.Totals
	Audit   sale.Audit
	Vault   vault.Status
	Team    []sale.TeamBonusEntry
}

// ParticipantStatus describes one identity's position in the sale.
type ParticipantStatus struct {
	Address     [20]byte
	Tier        sale.Tier
	KYC         bool
	Contributed *big.Int
	Deposited   *big.Int
	Balance     *big.Int
	Currency    *big.Int
}

// AccountStatus describes one identity on the ledger.
type AccountStatus struct {
	Address      [20]byte
	Balance      *big.Int
	Transferable *big.Int
	Currency     *big.Int
	Grants       []token.Grant
}

// SaleStatus returns the sale snapshot. The phase is the one a call made now
// would observe.
func (n *Node) SaleStatus() (*SaleStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	phase, err := n.sale.Phase()
	if err != nil {
		return nil, err
	}
	cfg, err := n.sale.Config()
	if err != nil {
		return nil, err
	}
	limits, err := n.sale.Limits()
	if err != nil {
		return nil, err
	}
	totals, err := n.sale.Totals()
	if err != nil {
		return nil, err
	}
	audit, err := n.sale.Audit()
	if err != nil {
		return nil, err
	}
	paused, err := n.sale.Paused()
	if err != nil {
		return nil, err
	}
	status, err := n.vault.Status()
	if err != nil {
		return nil, err
	}
	team, err := n.sale.TeamBonusEntries()
	if err != nil {
		return nil, err
	}
	return &SaleStatus{
		Address: n.sale.Address(),
		Phase:   phase,
		Paused:  paused,
		Config:  cfg,
		Limits:  limits,
		Totals:  totals,
		Audit:   audit,
		Vault:   status,
		Team:    team,
	}, nil
}

// Participant returns addr's sale position.
func (n *Node) Participant(addr [20]byte) (*ParticipantStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	participant, err := n.sale.Participant(addr)
	if err != nil {
		return nil, err
	}
	tier, err := n.sale.Tier(addr)
	if err != nil {
		return nil, err
	}
	deposited, err := n.vault.DepositedBalance(addr)
	if err != nil {
		return nil, err
	}
	balance, err := n.token.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	currency, err := n.bank.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	return &ParticipantStatus{
		Address:     addr,
		Tier:        tier,
		KYC:         participant.KYC,
		Contributed: participant.Contributed,
		Deposited:   deposited,
		Balance:     balance,
		Currency:    currency,
	}, nil
}

// Token returns the ledger metadata.
func (n *Node) Token() (*token.Metadata, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.Token()
}

// Account returns addr's ledger position.
func (n *Node) Account(addr [20]byte) (*AccountStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	balance, err := n.token.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	transferable, err := n.token.TransferableTokens(addr, n.now())
	if err != nil {
		return nil, err
	}
	currency, err := n.bank.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	grants, err := n.token.Grants(addr)
	if err != nil {
		return nil, err
	}
	return &AccountStatus{
		Address:      addr,
		Balance:      balance,
		Transferable: transferable,
		Currency:     currency,
		Grants:       grants,
	}, nil
}

// Allowance returns what spender may move on behalf of owner.
func (n *Node) Allowance(owner, spender [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.Allowance(owner, spender)
}

// RecentEvents returns up to limit of the latest committed events, oldest
// first. eventType filters when non-empty.
func (n *Node) RecentEvents(eventType string, limit int) []*types.Event {
	var evts []*types.Event
	if eventType != "" {
		evts = n.recent.OfType(eventType)
	} else {
		evts = n.recent.Events()
	}
	if limit > 0 && len(evts) > limit {
		evts = evts[len(evts)-limit:]
	}
	return evts
}
