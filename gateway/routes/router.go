package routes

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crowdsale/core"
	"crowdsale/core/types"
	"crowdsale/gateway/middleware"
	"crowdsale/native/sale"
	"crowdsale/native/token"
	"crowdsale/storage/eventlog"
)

// Backend is the node surface served over HTTP. *core.Node satisfies it.
type Backend interface {
	SaleStatus() (*core.SaleStatus, error)
	Participant(addr [20]byte) (*core.ParticipantStatus, error)
	Token() (*token.Metadata, error)
	Account(addr [20]byte) (*core.AccountStatus, error)
	Allowance(owner, spender [20]byte) (*big.Int, error)
	RecentEvents(eventType string, limit int) []*types.Event

	Contribute(caller [20]byte, amount *big.Int) (*sale.Receipt, error)
	ClaimRefund(caller [20]byte) (*big.Int, error)
	Advance() (sale.Phase, error)
	ConfigurePreSale(caller [20]byte, w sale.Window) error
	ConfigureSale(caller [20]byte, w sale.Window) error
	AddTeamBonus(caller [20]byte, entry sale.TeamBonusEntry) error
	Pause(caller [20]byte) error
	Unpause(caller [20]byte) error
	RenameToken(caller [20]byte, name, symbol string) error
	ConfirmKYC(caller, participant [20]byte) error
	ConfirmLawfulness(caller [20]byte, fulfilled bool, comment string) error
	Finalize(caller [20]byte) error
	EnableRefunds(caller [20]byte) error
	Certify(caller, addr [20]byte) error
	Revoke(caller, addr [20]byte) error

	Transfer(caller, to [20]byte, amount *big.Int) error
	TransferFrom(caller, from, to [20]byte, amount *big.Int) error
	Approve(caller, spender [20]byte, amount *big.Int) error
	IncreaseApproval(caller, spender [20]byte, delta *big.Int) error
	DecreaseApproval(caller, spender [20]byte, delta *big.Int) error
}

// EventSource pages through the persisted event log.
type EventSource interface {
	List(ctx context.Context, afterSeq uint64, limit int, eventType string) ([]eventlog.Entry, error)
}

type Config struct {
	Backend        Backend
	Events         EventSource
	Authenticator  *middleware.Authenticator
	RateLimiter    *middleware.RateLimiter
	Observability  *middleware.Observability
	CORS           middleware.CORSConfig
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

type handler struct {
	backend Backend
	events  EventSource
	log     *slog.Logger
}

// New builds the gateway router.
func New(cfg Config) (http.Handler, error) {
	if cfg.Backend == nil {
		return nil, errors.New("gateway: backend required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("gateway: authenticator required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	h := &handler{backend: cfg.Backend, events: cfg.Events, log: logger.With("component", "gateway")}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	obs := cfg.Observability
	observe := func(module, route string) func(http.Handler) http.Handler {
		if obs == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return obs.Middleware(module, route)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(pub chi.Router) {
			pub.With(observe("sale", "/v1/sale")).Get("/sale", h.getSale)
			pub.With(observe("sale", "/v1/sale/participants")).Get("/sale/participants/{addr}", h.getParticipant)
			pub.With(observe("token", "/v1/token")).Get("/token", h.getToken)
			pub.With(observe("token", "/v1/token/balances")).Get("/token/balances/{addr}", h.getBalance)
			pub.With(observe("token", "/v1/token/allowances")).Get("/token/allowances/{owner}/{spender}", h.getAllowance)
			pub.With(observe("events", "/v1/events")).Get("/events", h.listEvents)
			pub.With(observe("events", "/v1/events/recent")).Get("/events/recent", h.recentEvents)
		})

		writes := func(module string, scopes ...string) []func(http.Handler) http.Handler {
			chain := []func(http.Handler) http.Handler{cfg.Authenticator.Middleware(scopes...)}
			if cfg.RateLimiter != nil {
				chain = append(chain, cfg.RateLimiter.Middleware(module))
			}
			return chain
		}

		v1.Group(func(p chi.Router) {
			p.Use(writes("participant")...)
			p.With(observe("sale", "/v1/sale/contribute")).Post("/sale/contribute", h.contribute)
			p.With(observe("sale", "/v1/sale/refunds/claim")).Post("/sale/refunds/claim", h.claimRefund)
			p.With(observe("sale", "/v1/sale/advance")).Post("/sale/advance", h.advance)
			p.With(observe("token", "/v1/token/transfer")).Post("/token/transfer", h.transfer)
			p.With(observe("token", "/v1/token/transfer-from")).Post("/token/transfer-from", h.transferFrom)
			p.With(observe("token", "/v1/token/approve")).Post("/token/approve", h.approve)
			p.With(observe("token", "/v1/token/approval/increase")).Post("/token/approval/increase", h.increaseApproval)
			p.With(observe("token", "/v1/token/approval/decrease")).Post("/token/approval/decrease", h.decreaseApproval)
		})

		v1.Group(func(op chi.Router) {
			op.Use(writes("operator", middleware.ScopeOperator)...)
			op.With(observe("sale", "/v1/sale/presale")).Post("/sale/presale", h.configurePreSale)
			op.With(observe("sale", "/v1/sale/window")).Post("/sale/window", h.configureSale)
			op.With(observe("sale", "/v1/sale/team-bonus")).Post("/sale/team-bonus", h.addTeamBonus)
			op.With(observe("sale", "/v1/sale/pause")).Post("/sale/pause", h.pause)
			op.With(observe("sale", "/v1/sale/unpause")).Post("/sale/unpause", h.unpause)
			op.With(observe("sale", "/v1/sale/rename")).Post("/sale/rename", h.rename)
		})

		v1.Group(func(kyc chi.Router) {
			kyc.Use(writes("kyc", middleware.ScopeKYC)...)
			kyc.With(observe("sale", "/v1/sale/kyc")).Post("/sale/kyc/{addr}", h.confirmKYC)
		})

		v1.Group(func(audit chi.Router) {
			audit.Use(writes("auditor", middleware.ScopeAuditor)...)
			audit.With(observe("sale", "/v1/sale/audit")).Post("/sale/audit", h.confirmLawfulness)
		})

		v1.Group(func(board chi.Router) {
			board.Use(writes("board", middleware.ScopeBoard)...)
			board.With(observe("sale", "/v1/sale/finalize")).Post("/sale/finalize", h.finalize)
			board.With(observe("sale", "/v1/sale/refunds/enable")).Post("/sale/refunds/enable", h.enableRefunds)
		})

		v1.Group(func(oracle chi.Router) {
			oracle.Use(writes("oracle", middleware.ScopeOracle)...)
			oracle.With(observe("oracle", "/v1/oracle/certify")).Post("/oracle/certify/{addr}", h.certify)
			oracle.With(observe("oracle", "/v1/oracle/revoke")).Post("/oracle/revoke/{addr}", h.revoke)
		})
	})

	return r, nil
}
