package vault_test

import (
	"errors"
	"math/big"
	"testing"

	"crowdsale/core/events"
	"crowdsale/core/state"
	"crowdsale/native/bank"
	"crowdsale/native/common"
	"crowdsale/native/vault"
	"crowdsale/storage"
)

var (
	owner       = [20]byte{0x0a}
	beneficiary = [20]byte{0xbe}
	custody     = [20]byte{0xc0}
	payer       = [20]byte{0x01}
	other       = [20]byte{0x02}
)

type fixture struct {
	vault *vault.Engine
	bank  *bank.Engine
	rec   *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr := state.NewManager(db)
	rec := events.NewRecorder(0)
	mgr.SetSink(rec)

	b := bank.NewEngine()
	b.SetState(mgr)
	b.SetEmitter(mgr.Emitter())
	v := vault.NewEngine()
	v.SetState(mgr)
	v.SetFunds(b)
	v.SetEmitter(mgr.Emitter())
	if err := v.Deploy(owner, beneficiary, custody); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	for _, addr := range [][20]byte{payer, other} {
		if err := b.Credit(addr, big.NewInt(1_000)); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	return &fixture{vault: v, bank: b, rec: rec}
}

func (f *fixture) currency(t *testing.T, addr [20]byte) int64 {
	t.Helper()
	balance, err := f.bank.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance.Int64()
}

func TestDepositAndClose(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Deposit(payer, payer, big.NewInt(10)); !errors.Is(err, vault.ErrUnauthorized) {
		t.Fatalf("expected owner-only deposit, got %v", err)
	}
	if err := f.vault.Deposit(owner, payer, big.NewInt(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.vault.Deposit(owner, other, big.NewInt(200)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := f.currency(t, custody); got != 500 {
		t.Fatalf("expected custody 500, got %d", got)
	}
	if err := f.vault.Close(owner); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := f.currency(t, beneficiary); got != 500 {
		t.Fatalf("expected beneficiary 500, got %d", got)
	}
	if err := f.vault.EnableRefunds(owner); !errors.Is(err, vault.ErrNotActive) {
		t.Fatalf("close and refunds must be exclusive, got %v", err)
	}
	if err := f.vault.Deposit(owner, payer, big.NewInt(1)); !errors.Is(err, common.ErrStateConflict) {
		t.Fatalf("expected deposit on closed vault to conflict, got %v", err)
	}
	if len(f.rec.OfType(vault.EventTypeClosed)) != 1 {
		t.Fatalf("expected closed event")
	}
}

func TestRefundRoundTrip(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Deposit(owner, payer, big.NewInt(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.vault.Refund(payer); !errors.Is(err, vault.ErrNotRefunding) {
		t.Fatalf("expected refunds disabled, got %v", err)
	}
	if err := f.vault.EnableRefunds(owner); err != nil {
		t.Fatalf("enable refunds: %v", err)
	}
	refunded, err := f.vault.Refund(payer)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Int64() != 300 || f.currency(t, payer) != 1_000 {
		t.Fatalf("unexpected refund %s, balance %d", refunded, f.currency(t, payer))
	}
	if _, err := f.vault.Refund(payer); !errors.Is(err, vault.ErrNothingDeposited) {
		t.Fatalf("expected second refund to fail, got %v", err)
	}
	deposited, _ := f.vault.DepositedBalance(payer)
	if deposited.Sign() != 0 {
		t.Fatalf("expected deposit to be cleared")
	}
	if err := f.vault.Close(owner); !errors.Is(err, vault.ErrNotActive) {
		t.Fatalf("expected close after refunds to fail, got %v", err)
	}
}

func TestFailedFundsTransferIsResourceUnavailable(t *testing.T) {
	f := newFixture(t)
	err := f.vault.Deposit(owner, payer, big.NewInt(5_000))
	if !errors.Is(err, vault.ErrFundsUnavailable) || common.KindOf(err) != common.KindResource {
		t.Fatalf("expected resource unavailable, got %v", err)
	}
	deposited, _ := f.vault.DepositedBalance(payer)
	if deposited.Sign() != 0 {
		t.Fatalf("failed deposit must not be credited")
	}
}
