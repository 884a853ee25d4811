package oracle_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crowdsale/core/events"
	"crowdsale/core/state"
	"crowdsale/crypto"
	"crowdsale/native/common"
	"crowdsale/native/oracle"
	"crowdsale/storage"
)

var (
	operator = [20]byte{0x0f}
	subject  = [20]byte{0x42}
)

func TestRegistryCertifyAndRevoke(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr := state.NewManager(db)
	rec := events.NewRecorder(0)
	mgr.SetSink(rec)
	registry := oracle.NewRegistry(operator)
	registry.SetState(mgr)
	registry.SetEmitter(mgr.Emitter())

	if err := registry.Certify(subject, subject); !errors.Is(err, oracle.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := registry.Certify(operator, subject); err != nil {
		t.Fatalf("certify: %v", err)
	}
	if ok, err := registry.Certified(subject); err != nil || !ok {
		t.Fatalf("expected certified, got %v (%v)", ok, err)
	}
	if err := registry.Revoke(operator, subject); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := registry.Certified(subject); ok {
		t.Fatalf("expected revoked")
	}
	if len(rec.OfType(oracle.EventTypeCertified)) != 1 || len(rec.OfType(oracle.EventTypeRevoked)) != 1 {
		t.Fatalf("unexpected events %+v", rec.Events())
	}
}

func TestClientQueriesService(t *testing.T) {
	certified := crypto.FormatAddress(subject)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := strings.TrimPrefix(r.URL.Path, "/v1/certified/")
		w.Header().Set("Content-Type", "application/json")
		if addr == certified {
			_, _ = w.Write([]byte(`{"certified":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"certified":false}`))
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL+"/", time.Second)
	if ok, err := client.Certified(subject); err != nil || !ok {
		t.Fatalf("expected certified subject, got %v (%v)", ok, err)
	}
	if ok, err := client.Certified(operator); err != nil || ok {
		t.Fatalf("expected uncertified operator, got %v (%v)", ok, err)
	}
}

func TestClientFailuresAreResourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL, time.Second)
	_, err := client.Certified(subject)
	if !errors.Is(err, oracle.ErrUnavailable) || common.KindOf(err) != common.KindResource {
		t.Fatalf("expected resource unavailable, got %v", err)
	}

	srv.Close()
	if _, err := client.Certified(subject); !errors.Is(err, common.ErrResourceUnavailable) {
		t.Fatalf("expected transport failure to be resource unavailable, got %v", err)
	}
}
