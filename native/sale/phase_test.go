package sale

import (
	"math/big"
	"testing"
)

func testConfig() Config {
	return Config{
		PreSale: Window{Rate: 3, Start: 100, End: 200},
		Sale:    Window{Rate: 2, Start: 300, End: 400},
	}
}

func TestDerivePhaseBoundaries(t *testing.T) {
	cfg := testConfig()
	hardCap := big.NewInt(1000)
	cases := []struct {
		now  uint64
		sold int64
		want Phase
	}{
		{now: 0, want: PhasePreparePreSale},
		{now: 99, want: PhasePreparePreSale},
		{now: 100, want: PhasePreSale},
		{now: 199, want: PhasePreSale},
		{now: 200, want: PhasePrepareSale},
		{now: 299, want: PhasePrepareSale},
		{now: 300, want: PhaseSale},
		{now: 399, want: PhaseSale},
		{now: 400, want: PhaseAuditing},
		{now: 10_000, want: PhaseAuditing},
		{now: 150, sold: 999, want: PhasePreSale},
		{now: 150, sold: 1000, want: PhaseAuditing},
		{now: 50, sold: 5000, want: PhaseAuditing},
		{now: 350, sold: 1000, want: PhaseAuditing},
	}
	for _, tc := range cases {
		got := DerivePhase(tc.now, big.NewInt(tc.sold), hardCap, cfg, PhasePreparePreSale)
		if got != tc.want {
			t.Fatalf("now=%d sold=%d: expected %s, got %s", tc.now, tc.sold, tc.want, got)
		}
		if again := DerivePhase(tc.now, big.NewInt(tc.sold), hardCap, cfg, got); again != got {
			t.Fatalf("now=%d sold=%d: derivation not idempotent (%s then %s)", tc.now, tc.sold, got, again)
		}
	}
}

func TestDerivePhaseIsMonotonic(t *testing.T) {
	cfg := testConfig()
	hardCap := big.NewInt(1000)
	for prev := PhasePreparePreSale; prev <= PhaseRefunding; prev++ {
		for now := uint64(0); now <= 500; now += 25 {
			got := DerivePhase(now, big.NewInt(0), hardCap, cfg, prev)
			if got < prev {
				t.Fatalf("phase moved backwards from %s to %s at %d", prev, got, now)
			}
			if prev.Terminal() && got != prev {
				t.Fatalf("terminal phase %s left for %s", prev, got)
			}
		}
	}
	// A clock that appears to go backwards must not regress the phase.
	if got := DerivePhase(0, big.NewInt(0), hardCap, cfg, PhaseSale); got != PhaseSale {
		t.Fatalf("expected Sale to be sticky, got %s", got)
	}
}

func TestDerivePhaseTerminalIgnoresEverything(t *testing.T) {
	cfg := testConfig()
	for _, terminal := range []Phase{PhaseFinalized, PhaseRefunding} {
		if got := DerivePhase(150, big.NewInt(5000), big.NewInt(1), cfg, terminal); got != terminal {
			t.Fatalf("expected %s to stay, got %s", terminal, got)
		}
	}
}

func TestLimitsTierTables(t *testing.T) {
	limits := Limits{
		MaxUnverified:  big.NewInt(10),
		MaxSMSVerified: big.NewInt(20),
		SMSBonusBps:    500,
		KYCBonusBps:    1000,
	}
	if limits.Ceiling(TierNone).Int64() != 10 || limits.Ceiling(TierSMSVerified).Int64() != 20 {
		t.Fatalf("unexpected ceilings")
	}
	if limits.Ceiling(TierKYCVerified) != nil {
		t.Fatalf("kyc tier must be unlimited")
	}
	if limits.BonusBps(TierNone) != 0 || limits.BonusBps(TierSMSVerified) != 500 || limits.BonusBps(TierKYCVerified) != 1000 {
		t.Fatalf("unexpected bonus table")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := testConfig()
	if err := validateConfig(cfg, 50); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := validateConfig(cfg, 101); err == nil {
		t.Fatalf("expected windows starting in the past to be rejected")
	}
	overlapping := cfg
	overlapping.PreSale.End = 301
	if err := validateConfig(overlapping, 50); err == nil {
		t.Fatalf("expected overlapping windows to be rejected")
	}
	zeroRate := cfg
	zeroRate.Sale.Rate = 0
	if err := validateConfig(zeroRate, 50); err == nil {
		t.Fatalf("expected zero rate to be rejected")
	}
}
