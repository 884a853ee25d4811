package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"crowdsale/config"
	"crowdsale/core/events"
	"crowdsale/core/state"
	"crowdsale/native/bank"
	"crowdsale/native/oracle"
	"crowdsale/native/sale"
	"crowdsale/native/token"
	"crowdsale/native/vault"
	"crowdsale/observability/logging"
	"crowdsale/storage"
)

// RecentEventLimit bounds the in-memory event window served to clients.
const RecentEventLimit = 1024

// Settings are the deployment parameters of a node.
type Settings struct {
	Roles          sale.Roles
	OracleOperator [20]byte
	Beneficiary    [20]byte
	Sale           [20]byte
	Custody        [20]byte
	Token          token.Params
	Windows        sale.Config
	Limits         sale.Limits
}

// SettingsFromConfig resolves the configuration file into node settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	addrs, err := cfg.Addresses()
	if err != nil {
		return Settings{}, err
	}
	windows, limits, err := cfg.SaleSettings()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Roles:          addrs.SaleRoles(),
		OracleOperator: addrs.OracleOperator,
		Beneficiary:    addrs.Beneficiary,
		Sale:           addrs.Sale,
		Custody:        addrs.Custody,
		Token:          cfg.TokenParams(addrs.RewardDestination),
		Windows:        windows,
		Limits:         limits,
	}, nil
}

// Options are the optional collaborators of a node.
type Options struct {
	// Sink receives every committed event after the in-memory window.
	Sink events.Emitter
	// Certifier replaces the on-node oracle registry as the sale's source of
	// phone verification.
	Certifier sale.Certifier
	Now       func() uint64
	Logger    *slog.Logger
}

// Node owns the state manager and every engine. All entry points are
// serialized behind one mutex and share one clock.
type Node struct {
	mu       sync.Mutex
	db       storage.Database
	state    *state.Manager
	bank     *bank.Engine
	token    *token.Engine
	vault    *vault.Engine
	registry *oracle.Registry
	sale     *sale.Engine
	recent   *events.Recorder
	settings Settings
	nowFn    func() uint64
	log      *slog.Logger
}

// NewNode wires the engines over db and deploys the sale on first start.
func NewNode(db storage.Database, settings Settings, opts Options) (*Node, error) {
	if db == nil {
		return nil, errors.New("core: database required")
	}
	n := &Node{
		db:       db,
		state:    state.NewManager(db),
		recent:   events.NewRecorder(RecentEventLimit),
		settings: settings,
		nowFn:    opts.Now,
		log:      opts.Logger,
	}
	if n.nowFn == nil {
		n.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if n.log == nil {
		n.log = slog.Default()
	}
	n.log = n.log.With("component", "node")
	n.state.SetSink(events.Multi{n.recent, opts.Sink})
	emitter := n.state.Emitter()

	n.bank = bank.NewEngine()
	n.bank.SetState(n.state)
	n.bank.SetEmitter(emitter)

	n.token = token.NewEngine()
	n.token.SetState(n.state)
	n.token.SetEmitter(emitter)
	n.token.SetNowFunc(n.now)

	n.vault = vault.NewEngine()
	n.vault.SetState(n.state)
	n.vault.SetFunds(n.bank)
	n.vault.SetEmitter(emitter)

	n.registry = oracle.NewRegistry(settings.OracleOperator)
	n.registry.SetState(n.state)
	n.registry.SetEmitter(emitter)

	n.sale = sale.NewEngine(settings.Sale, settings.Roles)
	n.sale.SetState(n.state)
	n.sale.SetLedger(n.token)
	n.sale.SetVault(n.vault)
	n.sale.SetEmitter(emitter)
	n.sale.SetNowFunc(n.now)
	if opts.Certifier != nil {
		n.sale.SetCertifier(opts.Certifier)
	} else {
		n.sale.SetCertifier(n.registry)
	}

	if err := n.deploy(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) now() uint64 { return n.nowFn() }

// deploy creates the ledger, the vault and the sale in one commit unless a
// previous run already did.
func (n *Node) deploy() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := n.sale.Phase(); err == nil {
		return nil
	} else if !errors.Is(err, sale.ErrNotDeployed) {
		return err
	}
	s := n.settings
	err := n.state.Atomic(func() error {
		if err := n.token.Deploy(s.Sale, s.Token); err != nil {
			return fmt.Errorf("deploy token: %w", err)
		}
		if err := n.vault.Deploy(s.Sale, s.Beneficiary, s.Custody); err != nil {
			return fmt.Errorf("deploy vault: %w", err)
		}
		if err := n.sale.Deploy(s.Windows, s.Limits); err != nil {
			return fmt.Errorf("deploy sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	n.log.Info("sale deployed",
		"token", s.Token.Symbol,
		"cap", s.Limits.Cap.String(),
		logging.Address("sale", s.Sale),
		logging.Address("beneficiary", s.Beneficiary))
	return nil
}

func (n *Node) exec(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

// Contribute buys units for caller.
func (n *Node) Contribute(caller [20]byte, amount *big.Int) (*sale.Receipt, error) {
	var receipt *sale.Receipt
	err := n.exec(func() error {
		var err error
		receipt, err = n.sale.Contribute(caller, amount)
		return err
	})
	return receipt, err
}

// ClaimRefund pays caller back after refunds were enabled.
func (n *Node) ClaimRefund(caller [20]byte) (*big.Int, error) {
	var refunded *big.Int
	err := n.exec(func() error {
		var err error
		refunded, err = n.sale.ClaimRefund(caller)
		return err
	})
	return refunded, err
}

// Advance persists any timed phase transition.
func (n *Node) Advance() (sale.Phase, error) {
	var phase sale.Phase
	err := n.exec(func() error {
		var err error
		phase, err = n.sale.Advance()
		return err
	})
	return phase, err
}

// ConfigurePreSale replaces the pre-sale window before it opens.
func (n *Node) ConfigurePreSale(caller [20]byte, w sale.Window) error {
	return n.exec(func() error { return n.sale.ConfigurePreSale(caller, w) })
}

// ConfigureSale replaces the main sale window before it opens.
func (n *Node) ConfigureSale(caller [20]byte, w sale.Window) error {
	return n.exec(func() error { return n.sale.ConfigureSale(caller, w) })
}

// AddTeamBonus records a vested team allocation paid out at finalize.
func (n *Node) AddTeamBonus(caller [20]byte, entry sale.TeamBonusEntry) error {
	return n.exec(func() error { return n.sale.AddTeamBonus(caller, entry) })
}

// Pause halts contributions.
func (n *Node) Pause(caller [20]byte) error {
	return n.exec(func() error { return n.sale.Pause(caller) })
}

// Unpause resumes contributions.
func (n *Node) Unpause(caller [20]byte) error {
	return n.exec(func() error { return n.sale.Unpause(caller) })
}

// RenameToken updates the token name and symbol through the sale.
func (n *Node) RenameToken(caller [20]byte, name, symbol string) error {
	return n.exec(func() error { return n.sale.RenameToken(caller, name, symbol) })
}

// ConfirmKYC marks participant as identity verified.
func (n *Node) ConfirmKYC(caller, participant [20]byte) error {
	return n.exec(func() error { return n.sale.ConfirmKYC(caller, participant) })
}

// ConfirmLawfulness records the auditor verdict on the concluded sale.
func (n *Node) ConfirmLawfulness(caller [20]byte, fulfilled bool, comment string) error {
	return n.exec(func() error { return n.sale.ConfirmLawfulness(caller, fulfilled, comment) })
}

// Finalize concludes a successful sale and hands the token to the operator.
func (n *Node) Finalize(caller [20]byte) error {
	return n.exec(func() error { return n.sale.Finalize(caller) })
}

// EnableRefunds moves the sale into the refund phase.
func (n *Node) EnableRefunds(caller [20]byte) error {
	return n.exec(func() error { return n.sale.EnableRefunds(caller) })
}

// Certify marks addr as phone verified in the on-node registry.
func (n *Node) Certify(caller, addr [20]byte) error {
	return n.exec(func() error { return n.registry.Certify(caller, addr) })
}

// Revoke clears the phone verification of addr in the on-node registry.
func (n *Node) Revoke(caller, addr [20]byte) error {
	return n.exec(func() error { return n.registry.Revoke(caller, addr) })
}

// Transfer moves amount of caller's unlocked tokens to to.
func (n *Node) Transfer(caller, to [20]byte, amount *big.Int) error {
	return n.exec(func() error { return n.token.Transfer(caller, to, amount) })
}

// TransferFrom spends caller's allowance on from.
func (n *Node) TransferFrom(caller, from, to [20]byte, amount *big.Int) error {
	return n.exec(func() error { return n.token.TransferFrom(caller, from, to, amount) })
}

// Approve sets the allowance of spender over caller's tokens.
func (n *Node) Approve(caller, spender [20]byte, amount *big.Int) error {
	return n.exec(func() error { return n.token.Approve(caller, spender, amount) })
}

// IncreaseApproval raises the allowance of spender by delta.
func (n *Node) IncreaseApproval(caller, spender [20]byte, delta *big.Int) error {
	return n.exec(func() error { return n.token.IncreaseApproval(caller, spender, delta) })
}

// DecreaseApproval lowers the allowance of spender by delta, flooring at zero.
func (n *Node) DecreaseApproval(caller, spender [20]byte, delta *big.Int) error {
	return n.exec(func() error { return n.token.DecreaseApproval(caller, spender, delta) })
}

// Credit funds addr with base currency.
func (n *Node) Credit(addr [20]byte, amount *big.Int) error {
	return n.exec(func() error { return n.bank.Credit(addr, amount) })
}
