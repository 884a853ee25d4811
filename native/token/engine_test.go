package token_test

import (
	"errors"
	"math/big"
	"testing"

	"crowdsale/core/events"
	"crowdsale/core/state"
	"crowdsale/native/common"
	"crowdsale/native/scheduler"
	"crowdsale/native/token"
	"crowdsale/storage"
)

const day = uint64(24 * 60 * 60)

var (
	owner  = [20]byte{0x01}
	alice  = [20]byte{0xa1}
	bob    = [20]byte{0xb0}
	reward = [20]byte{0xee}
)

type fixture struct {
	engine *token.Engine
	state  *state.Manager
	rec    *events.Recorder
	now    uint64
}

func newFixture(t *testing.T, params token.Params) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	f := &fixture{state: state.NewManager(db), rec: events.NewRecorder(0), now: 1_700_000_000}
	f.state.SetSink(f.rec)
	f.engine = token.NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetEmitter(f.state.Emitter())
	f.engine.SetNowFunc(func() uint64 { return f.now })
	if params.Name == "" {
		params.Name = "Crowd Sale Token"
		params.Symbol = "cst"
		params.Decimals = 18
		params.RewardDestination = reward
		params.InflationInterval = 30 * day
	}
	if err := f.engine.Deploy(owner, params); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	return f
}

func (f *fixture) balance(t *testing.T, addr [20]byte) int64 {
	t.Helper()
	balance, err := f.engine.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance.Int64()
}

func TestTransferLockedUntilRelease(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.Mint(owner, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	checks := map[string]func() error{
		"transfer":     func() error { return f.engine.Transfer(alice, bob, big.NewInt(1)) },
		"transferFrom": func() error { return f.engine.TransferFrom(bob, alice, bob, big.NewInt(1)) },
		"approve":      func() error { return f.engine.Approve(alice, bob, big.NewInt(1)) },
		"increase":     func() error { return f.engine.IncreaseApproval(alice, bob, big.NewInt(1)) },
		"decrease":     func() error { return f.engine.DecreaseApproval(alice, bob, big.NewInt(1)) },
	}
	for name, call := range checks {
		if err := call(); !errors.Is(err, token.ErrTransferLocked) {
			t.Fatalf("%s: expected transfer locked, got %v", name, err)
		}
	}

	if err := f.engine.Release(bob); !errors.Is(err, token.ErrUnauthorized) {
		t.Fatalf("expected unauthorized release, got %v", err)
	}
	if err := f.engine.Release(owner); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.engine.Release(owner); !errors.Is(err, token.ErrAlreadyReleased) {
		t.Fatalf("expected already released, got %v", err)
	}
	if err := f.engine.Transfer(alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := f.engine.Approve(alice, bob, big.NewInt(30)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.engine.TransferFrom(bob, alice, bob, big.NewInt(20)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if err := f.engine.TransferFrom(bob, alice, bob, big.NewInt(20)); !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
	if got := f.balance(t, alice); got != 40 {
		t.Fatalf("expected alice 40, got %d", got)
	}
	if got := f.balance(t, bob); got != 60 {
		t.Fatalf("expected bob 60, got %d", got)
	}
	if err := f.engine.Transfer(alice, bob, big.NewInt(41)); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := f.engine.Transfer(alice, [20]byte{}, big.NewInt(1)); !errors.Is(err, token.ErrZeroAddress) {
		t.Fatalf("expected zero address rejection, got %v", err)
	}
}

func TestApprovalAdjustments(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.Release(owner); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.engine.IncreaseApproval(alice, bob, big.NewInt(10)); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if err := f.engine.DecreaseApproval(alice, bob, big.NewInt(25)); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	allowance, err := f.engine.Allowance(alice, bob)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Sign() != 0 {
		t.Fatalf("expected decrease to floor at zero, got %s", allowance)
	}
	if len(f.rec.OfType(token.EventTypeApproval)) != 2 {
		t.Fatalf("expected two approval events")
	}
}

func TestMintingLifecycle(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.Mint(alice, alice, big.NewInt(1)); !errors.Is(err, token.ErrUnauthorized) {
		t.Fatalf("expected unauthorized mint, got %v", err)
	}
	if err := f.engine.Mint(owner, alice, big.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.engine.FinishMinting(owner); err != nil {
		t.Fatalf("finish: %v", err)
	}
	err := f.engine.Mint(owner, alice, big.NewInt(5))
	if !errors.Is(err, token.ErrMintingClosed) || !errors.Is(err, common.ErrStateConflict) {
		t.Fatalf("expected minting closed conflict, got %v", err)
	}
	supply, _ := f.engine.TotalSupply()
	if supply.Int64() != 5 {
		t.Fatalf("unexpected supply %s", supply)
	}
	if got := f.rec.OfType(events.TypeTokenSupply); len(got) != 1 || got[0].Attr("reason") != events.SupplyReasonMint {
		t.Fatalf("expected one mint supply event, got %+v", got)
	}
}

func TestOwnershipAndRename(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.TransferOwnership(owner, alice); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if err := f.engine.Mint(owner, bob, big.NewInt(1)); !errors.Is(err, token.ErrUnauthorized) {
		t.Fatalf("previous owner must lose privileges, got %v", err)
	}
	if err := f.engine.Rename(alice, " Renamed ", "rnm"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	meta, _ := f.engine.Token()
	if meta.Name != "Renamed" || meta.Symbol != "RNM" || meta.Owner != alice {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if err := f.engine.Rename(alice, "", "x"); !errors.Is(err, token.ErrInvalidMetadata) {
		t.Fatalf("expected invalid metadata, got %v", err)
	}
	// Decomposed "e" + combining acute is stored composed.
	if err := f.engine.Rename(alice, "Cafe\u0301", "cafe\u0301"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	meta, _ = f.engine.Token()
	if meta.Name != "Caf\u00e9" || meta.Symbol != "CAF\u00c9" {
		t.Fatalf("expected NFC metadata, got %q/%q", meta.Name, meta.Symbol)
	}
}

func TestVestedGrantRestrictsTransfers(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.Mint(owner, owner, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	start := f.now
	// Grants are privileged and ignore the transfer lock.
	if err := f.engine.GrantVestedTokens(owner, alice, big.NewInt(1000), start, start+100, start+200, false, false); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := f.engine.Release(owner); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.engine.Transfer(alice, bob, big.NewInt(1)); !errors.Is(err, token.ErrInsufficientUnlockedBalance) {
		t.Fatalf("expected locked balance before cliff, got %v", err)
	}
	f.now = start + 150
	transferable, _ := f.engine.TransferableTokens(alice, f.now)
	if transferable.Int64() != 750 {
		t.Fatalf("expected 750 transferable, got %s", transferable)
	}
	if err := f.engine.Transfer(alice, bob, big.NewInt(751)); !errors.Is(err, token.ErrInsufficientUnlockedBalance) {
		t.Fatalf("expected unlocked balance ceiling, got %v", err)
	}
	if err := f.engine.Transfer(alice, bob, big.NewInt(750)); err != nil {
		t.Fatalf("transfer vested: %v", err)
	}
	f.now = start + 200
	if err := f.engine.Transfer(alice, bob, big.NewInt(250)); err != nil {
		t.Fatalf("transfer after vesting: %v", err)
	}
	if err := f.engine.RevokeTokenGrant(owner, alice, 0); !errors.Is(err, token.ErrGrantNotRevocable) {
		t.Fatalf("expected irrevocable grant, got %v", err)
	}
}

func TestGrantLimitsAndRevocation(t *testing.T) {
	f := newFixture(t, token.Params{})
	if err := f.engine.Mint(owner, owner, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	start := f.now
	if err := f.engine.GrantVestedTokens(owner, alice, big.NewInt(10), start, start-1, start+10, true, false); !errors.Is(err, token.ErrInvalidGrant) {
		t.Fatalf("expected invalid grant, got %v", err)
	}
	for i := 0; i < token.MaxGrantsPerHolder; i++ {
		if err := f.engine.GrantVestedTokens(owner, alice, big.NewInt(10), start, start+10, start+20, true, i%2 == 1); err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	if err := f.engine.GrantVestedTokens(owner, alice, big.NewInt(10), start, start+10, start+20, true, false); !errors.Is(err, token.ErrTooManyGrants) {
		t.Fatalf("expected too many grants, got %v", err)
	}
	if err := f.engine.RevokeTokenGrant(bob, alice, 0); !errors.Is(err, token.ErrGrantNotRevocable) {
		t.Fatalf("only the granter may revoke, got %v", err)
	}

	// Grant 0 returns to the granter, grant 1 is burned.
	if err := f.engine.RevokeTokenGrant(owner, alice, 1); err != nil {
		t.Fatalf("revoke burnable: %v", err)
	}
	if err := f.engine.RevokeTokenGrant(owner, alice, 0); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	grants, _ := f.engine.Grants(alice)
	if len(grants) != token.MaxGrantsPerHolder-2 {
		t.Fatalf("expected two grants removed, got %d", len(grants))
	}
	if got := f.balance(t, owner); got != 1000-200+10 {
		t.Fatalf("unexpected owner balance %d", got)
	}
	supply, _ := f.engine.TotalSupply()
	if supply.Int64() != 990 {
		t.Fatalf("expected burned grant to shrink supply, got %s", supply)
	}
	if got := f.balance(t, alice); got != 180 {
		t.Fatalf("unexpected holder balance %d", got)
	}
}

func TestTransferMintsElapsedInflation(t *testing.T) {
	f := newFixture(t, token.Params{
		Name:              "Crowd Sale Token",
		Symbol:            "CST",
		RewardDestination: reward,
		InflationBps:      100,
		InflationInterval: 30 * day,
	})
	if err := f.engine.Mint(owner, alice, big.NewInt(10_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.engine.Release(owner); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.engine.FinishMinting(owner); err != nil {
		t.Fatalf("finish minting: %v", err)
	}
	if err := f.engine.EnableSchedule(owner); err != nil {
		t.Fatalf("enable schedule: %v", err)
	}
	enabledAt := f.now

	f.now += 95 * day
	if err := f.engine.Transfer(alice, bob, big.NewInt(1)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	// 10000 -> 10100 -> 10201 -> 10303 compounding at 1% per interval.
	if got := f.balance(t, reward); got != 303 {
		t.Fatalf("expected 303 inflation units, got %d", got)
	}
	supply, _ := f.engine.TotalSupply()
	if supply.Int64() != 10_303 {
		t.Fatalf("unexpected supply %s", supply)
	}
	schedule, _ := f.engine.Schedule()
	if schedule.LastUpdate != enabledAt+90*day {
		t.Fatalf("expected last update +90 days, got +%d", schedule.LastUpdate-enabledAt)
	}
	if got := f.rec.OfType(scheduler.EventTypeIntervalsProcessed); len(got) != 1 || got[0].Attr("count") != "3" {
		t.Fatalf("expected one processed event with count 3, got %+v", got)
	}
	if got := f.rec.OfType(token.EventTypeMint); len(got) != 4 {
		t.Fatalf("expected 1 mint plus 3 inflation mints, got %d", len(got))
	}
}

func TestFailedInflationRevertsWholeTransfer(t *testing.T) {
	f := newFixture(t, token.Params{
		Name:              "Crowd Sale Token",
		Symbol:            "CST",
		RewardDestination: reward,
		InflationBps:      common.BasisPointsDenom,
		InflationInterval: day,
	})
	supply := new(big.Int).Lsh(big.NewInt(1), 241)
	if err := f.engine.Mint(owner, alice, supply); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.engine.Release(owner); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.engine.EnableSchedule(owner); err != nil {
		t.Fatalf("enable: %v", err)
	}
	before, _ := f.engine.Schedule()
	f.rec.Reset()

	// Two doublings fit in 256 bits; the third overflows.
	f.now += 3 * day
	err := f.engine.Transfer(alice, bob, big.NewInt(1))
	if !errors.Is(err, common.ErrArithmeticOverflow) {
		t.Fatalf("expected overflow from third interval, got %v", err)
	}
	total, _ := f.engine.TotalSupply()
	if total.Cmp(supply) != 0 {
		t.Fatalf("supply must be untouched, got %s", total)
	}
	if got := f.balance(t, reward); got != 0 {
		t.Fatalf("reward destination must be untouched, got %d", got)
	}
	if got := f.balance(t, bob); got != 0 {
		t.Fatalf("transfer must not apply, got %d", got)
	}
	after, _ := f.engine.Schedule()
	if after.LastUpdate != before.LastUpdate {
		t.Fatalf("last update must not move")
	}
	if len(f.rec.Events()) != 0 {
		t.Fatalf("no event may escape a reverted call, got %d", len(f.rec.Events()))
	}
}

func TestDeployValidation(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	engine := token.NewEngine()
	engine.SetState(state.NewManager(db))
	if err := engine.Deploy([20]byte{}, token.Params{Name: "n", Symbol: "s", InflationInterval: 1}); !errors.Is(err, token.ErrZeroAddress) {
		t.Fatalf("expected zero owner rejection, got %v", err)
	}
	if err := engine.Deploy(owner, token.Params{Name: "n", Symbol: "s", InflationBps: 10, InflationInterval: 1}); !errors.Is(err, token.ErrZeroAddress) {
		t.Fatalf("expected missing reward destination rejection, got %v", err)
	}
	if err := engine.Deploy(owner, token.Params{Name: "n", Symbol: "s"}); !errors.Is(err, scheduler.ErrZeroInterval) {
		t.Fatalf("expected zero interval rejection, got %v", err)
	}
	if _, err := engine.Token(); !errors.Is(err, token.ErrNotDeployed) {
		t.Fatalf("failed deploy must leave nothing behind, got %v", err)
	}
	if err := engine.Deploy(owner, token.Params{Name: "n", Symbol: "s", InflationInterval: 1}); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := engine.Deploy(owner, token.Params{Name: "n", Symbol: "s", InflationInterval: 1}); !errors.Is(err, token.ErrAlreadyDeployed) {
		t.Fatalf("expected already deployed, got %v", err)
	}
}
