package passphrase

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("SALE_TEST_PASS", "from-env")
	src := NewSource("SALE_TEST_PASS", "keystore")
	src.isTerminal = func() bool { t.Fatalf("terminal must not be consulted"); return false }
	got, err := src.Get()
	if err != nil || got != "from-env" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	t.Setenv("SALE_TEST_PASS", "  ")
	if _, err := NewSource("SALE_TEST_PASS", "keystore").Get(); err == nil {
		t.Fatalf("expected empty passphrase error")
	}
}

func TestSourcePromptsOnce(t *testing.T) {
	var prompt bytes.Buffer
	calls := 0
	src := NewSource("", "operator keystore")
	src.prompt = &prompt
	src.isTerminal = func() bool { return true }
	src.readPassword = func() ([]byte, error) {
		calls++
		return []byte("typed"), nil
	}
	for i := 0; i < 2; i++ {
		got, err := src.Get()
		if err != nil || got != "typed" {
			t.Fatalf("unexpected result %q %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single prompt, got %d", calls)
	}
	if !strings.Contains(prompt.String(), "operator keystore") {
		t.Fatalf("prompt missing label: %q", prompt.String())
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("", "keystore")
	src.isTerminal = func() bool { return false }
	if _, err := src.Get(); err == nil {
		t.Fatalf("expected error without terminal")
	}

	src = NewSource("", "keystore")
	src.isTerminal = func() bool { return true }
	src.readPassword = func() ([]byte, error) { return nil, errors.New("eof") }
	if _, err := src.Get(); err == nil {
		t.Fatalf("expected read error")
	}
}
