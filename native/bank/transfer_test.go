package bank_test

import (
	"errors"
	"math/big"
	"testing"

	"crowdsale/core/events"
	"crowdsale/core/state"
	"crowdsale/native/bank"
	"crowdsale/native/common"
	"crowdsale/storage"
)

func newBank(t *testing.T) (*bank.Engine, *events.Recorder) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr := state.NewManager(db)
	rec := events.NewRecorder(0)
	mgr.SetSink(rec)
	engine := bank.NewEngine()
	engine.SetState(mgr)
	engine.SetEmitter(mgr.Emitter())
	return engine, rec
}

func TestCreditAndTransfer(t *testing.T) {
	engine, rec := newBank(t)
	a, b := [20]byte{1}, [20]byte{2}
	if err := engine.Credit(a, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := engine.Transfer(a, b, big.NewInt(60)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	err := engine.Transfer(a, b, big.NewInt(41))
	if !errors.Is(err, bank.ErrInsufficientFunds) || !errors.Is(err, common.ErrRangeViolation) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balA, _ := engine.BalanceOf(a)
	balB, _ := engine.BalanceOf(b)
	if balA.Int64() != 40 || balB.Int64() != 60 {
		t.Fatalf("unexpected balances %s / %s", balA, balB)
	}
	if len(rec.OfType(bank.EventTypeTransferred)) != 1 || len(rec.OfType(bank.EventTypeCredited)) != 1 {
		t.Fatalf("unexpected events %+v", rec.Events())
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	engine, _ := newBank(t)
	if err := engine.Credit([20]byte{}, big.NewInt(1)); !errors.Is(err, bank.ErrZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
	if err := engine.Transfer([20]byte{1}, [20]byte{2}, big.NewInt(0)); !errors.Is(err, bank.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}
