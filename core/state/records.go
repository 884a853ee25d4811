package state

import (
	"math/big"
	"strings"

	"crowdsale/native/scheduler"
	"crowdsale/native/sale"
	"crowdsale/native/token"
	"crowdsale/native/vault"
)

var (
	tokenMetaKey        = []byte("token/meta")
	tokenBalancePrefix  = []byte("token/balance/")
	tokenAllowPrefix    = []byte("token/allowance/")
	tokenGrantsPrefix   = []byte("token/grants/")
	schedulerPrefix     = []byte("scheduler/")
	saleRecordKey       = []byte("sale/record")
	saleParticipantPref = []byte("sale/participant/")
	saleTeamBonusKey    = []byte("sale/team-bonus")
	pausePrefix         = []byte("pause/")
	vaultStateKey       = []byte("vault/state")
	vaultDepositPrefix  = []byte("vault/deposit/")
	bankBalancePrefix   = []byte("bank/balance/")
	oraclePrefix        = []byte("oracle/certified/")
)

func prefixed(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}

func (m *Manager) getAmount(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) putAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, amount)
}

// --- token ---

// TokenMetadataGet returns the persisted token metadata.
func (m *Manager) TokenMetadataGet() (*token.Metadata, bool, error) {
	meta := new(token.Metadata)
	ok, err := m.KVGet(tokenMetaKey, meta)
	if err != nil || !ok {
		return nil, ok, err
	}
	return meta, true, nil
}

// TokenMetadataPut persists the token metadata.
func (m *Manager) TokenMetadataPut(meta *token.Metadata) error {
	return m.KVPut(tokenMetaKey, meta.Clone())
}

// TokenBalanceGet returns the token balance of addr.
func (m *Manager) TokenBalanceGet(addr [20]byte) (*big.Int, error) {
	return m.getAmount(prefixed(tokenBalancePrefix, addr[:]))
}

// TokenBalancePut stores the token balance of addr.
func (m *Manager) TokenBalancePut(addr [20]byte, amount *big.Int) error {
	return m.putAmount(prefixed(tokenBalancePrefix, addr[:]), amount)
}

// TokenAllowanceGet returns how much spender may move on behalf of owner.
func (m *Manager) TokenAllowanceGet(owner, spender [20]byte) (*big.Int, error) {
	return m.getAmount(prefixed(tokenAllowPrefix, owner[:], spender[:]))
}

// TokenAllowancePut stores the allowance of spender over owner's balance.
func (m *Manager) TokenAllowancePut(owner, spender [20]byte, amount *big.Int) error {
	return m.putAmount(prefixed(tokenAllowPrefix, owner[:], spender[:]), amount)
}

// TokenGrantsGet returns the vesting grants attached to holder.
func (m *Manager) TokenGrantsGet(holder [20]byte) ([]token.Grant, error) {
	var grants []token.Grant
	if _, err := m.KVGet(prefixed(tokenGrantsPrefix, holder[:]), &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

// TokenGrantsPut replaces the vesting grants attached to holder.
func (m *Manager) TokenGrantsPut(holder [20]byte, grants []token.Grant) error {
	key := prefixed(tokenGrantsPrefix, holder[:])
	if len(grants) == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, grants)
}

// --- scheduler ---

// SchedulerGet returns the schedule persisted under id.
func (m *Manager) SchedulerGet(id string) (*scheduler.Schedule, bool, error) {
	schedule := new(scheduler.Schedule)
	ok, err := m.KVGet(prefixed(schedulerPrefix, []byte(id)), schedule)
	if err != nil || !ok {
		return nil, ok, err
	}
	return schedule, true, nil
}

// SchedulerPut persists the schedule under id.
func (m *Manager) SchedulerPut(id string, schedule *scheduler.Schedule) error {
	return m.KVPut(prefixed(schedulerPrefix, []byte(id)), schedule)
}

// --- sale ---

// SaleRecordGet returns the persisted sale record.
func (m *Manager) SaleRecordGet() (*sale.Record, bool, error) {
	record := new(sale.Record)
	ok, err := m.KVGet(saleRecordKey, record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// SaleRecordPut persists the sale record.
func (m *Manager) SaleRecordPut(record *sale.Record) error {
	return m.KVPut(saleRecordKey, record.Clone())
}

// SaleParticipantGet returns the participant record for addr. Unknown
// participants yield a zero record.
func (m *Manager) SaleParticipantGet(addr [20]byte) (*sale.Participant, error) {
	participant := new(sale.Participant)
	ok, err := m.KVGet(prefixed(saleParticipantPref, addr[:]), participant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &sale.Participant{Contributed: big.NewInt(0)}, nil
	}
	return participant, nil
}

// SaleParticipantPut persists the participant record for addr.
func (m *Manager) SaleParticipantPut(addr [20]byte, participant *sale.Participant) error {
	return m.KVPut(prefixed(saleParticipantPref, addr[:]), participant.Clone())
}

// SaleTeamBonusGet returns the team bonus entries in insertion order.
func (m *Manager) SaleTeamBonusGet() ([]sale.TeamBonusEntry, error) {
	var entries []sale.TeamBonusEntry
	if _, err := m.KVGet(saleTeamBonusKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaleTeamBonusPut replaces the team bonus entries.
func (m *Manager) SaleTeamBonusPut(entries []sale.TeamBonusEntry) error {
	return m.KVPut(saleTeamBonusKey, entries)
}

// --- pause flags ---

func pauseKey(module string) []byte {
	return prefixed(pausePrefix, []byte(strings.ToLower(strings.TrimSpace(module))))
}

// IsPaused reports whether module has been paused.
func (m *Manager) IsPaused(module string) (bool, error) {
	var paused bool
	if _, err := m.KVGet(pauseKey(module), &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// SetPaused records the pause flag of module.
func (m *Manager) SetPaused(module string, paused bool) error {
	if !paused {
		return m.KVDelete(pauseKey(module))
	}
	return m.KVPut(pauseKey(module), true)
}

// --- vault ---

// VaultGet returns the persisted vault state.
func (m *Manager) VaultGet() (*vault.State, bool, error) {
	st := new(vault.State)
	ok, err := m.KVGet(vaultStateKey, st)
	if err != nil || !ok {
		return nil, ok, err
	}
	return st, true, nil
}

// VaultPut persists the vault state.
func (m *Manager) VaultPut(st *vault.State) error {
	return m.KVPut(vaultStateKey, st.Clone())
}

// VaultDepositGet returns the amount deposited on behalf of payer.
func (m *Manager) VaultDepositGet(payer [20]byte) (*big.Int, error) {
	return m.getAmount(prefixed(vaultDepositPrefix, payer[:]))
}

// VaultDepositPut stores the amount deposited on behalf of payer.
func (m *Manager) VaultDepositPut(payer [20]byte, amount *big.Int) error {
	return m.putAmount(prefixed(vaultDepositPrefix, payer[:]), amount)
}

// --- bank ---

// BankBalanceGet returns the base-currency balance of addr.
func (m *Manager) BankBalanceGet(addr [20]byte) (*big.Int, error) {
	return m.getAmount(prefixed(bankBalancePrefix, addr[:]))
}

// BankBalancePut stores the base-currency balance of addr.
func (m *Manager) BankBalancePut(addr [20]byte, amount *big.Int) error {
	return m.putAmount(prefixed(bankBalancePrefix, addr[:]), amount)
}

// --- oracle ---

// OracleCertifiedGet reports whether addr is certified by the registry.
func (m *Manager) OracleCertifiedGet(addr [20]byte) (bool, error) {
	var certified bool
	if _, err := m.KVGet(prefixed(oraclePrefix, addr[:]), &certified); err != nil {
		return false, err
	}
	return certified, nil
}

// OracleCertifiedPut records the certification flag of addr.
func (m *Manager) OracleCertifiedPut(addr [20]byte, certified bool) error {
	key := prefixed(oraclePrefix, addr[:])
	if !certified {
		return m.KVDelete(key)
	}
	return m.KVPut(key, true)
}
