package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"crowdsale/crypto"
)

func TestKeygenPrintsAddress(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"keygen"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected output %q", out.String())
	}
	addr := strings.TrimPrefix(lines[0], "address: ")
	if _, err := crypto.ParseAddress(addr); err != nil {
		t.Fatalf("keygen printed invalid address %q: %v", addr, err)
	}
}

func TestKeygenWritesKeystore(t *testing.T) {
	t.Setenv("SALECTL_TEST_PASS", "hunter2")
	path := filepath.Join(t.TempDir(), "operator.json")
	var out, errOut bytes.Buffer
	if code := run([]string{"keygen", "-out", path, "-pass-env", "SALECTL_TEST_PASS"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Contains(out.String(), "private key") {
		t.Fatalf("keystore mode must not print the key")
	}
	written := strings.SplitN(strings.TrimSpace(out.String()), "\n", 2)[0]

	out.Reset()
	if code := run([]string{"inspect", "-keystore", path, "-pass-env", "SALECTL_TEST_PASS"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) != written {
		t.Fatalf("inspect mismatch: %q vs %q", out.String(), written)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("SALECTL_TEST_SECRET", "")
	subject := crypto.FormatAddress([20]byte{0x01})
	var out, errOut bytes.Buffer
	code := run([]string{"token", "-subject", subject, "-secret-env", "SALECTL_TEST_SECRET"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected failure without secret, got %d", code)
	}

	t.Setenv("SALECTL_TEST_SECRET", "s3cret")
	out.Reset()
	code = run([]string{"token", "-subject", subject, "-scopes", "operator, board", "-secret-env", "SALECTL_TEST_SECRET"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.Count(strings.TrimSpace(out.String()), ".") != 2 {
		t.Fatalf("expected a JWT, got %q", out.String())
	}
}

func TestAddressDerivesModuleAccount(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"address", "-label", "sale"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) != crypto.FormatAddress(crypto.DeriveAddress("sale")) {
		t.Fatalf("unexpected address %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"bogus"}, &out, &errOut); code != 2 {
		t.Fatalf("expected usage exit, got %d", code)
	}
}
