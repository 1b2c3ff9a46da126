package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"escrowkit/config"
	"escrowkit/core/events"
	"escrowkit/core/state"
	"escrowkit/native/auction"
	"escrowkit/native/bet"
	"escrowkit/native/crowdfund"
	"escrowkit/native/escrow"
	"escrowkit/native/htlc"
	"escrowkit/native/oracle"
	"escrowkit/native/splitter"
	"escrowkit/native/vault"
	"escrowkit/native/vesting"
	"escrowkit/observability/metrics"
	"escrowkit/storage"
)

// Node wires the state manager, the quote aggregator and every engine family
// together over a single database. All engines share one clock and one event
// pipeline so replaying the same transitions yields the same state and the
// same event stream.
type Node struct {
	db      storage.Database
	state   *state.Manager
	events  *events.Collector
	emitter events.Emitter
	oracle  *oracle.Aggregator
	logger  *slog.Logger

	escrow    *escrow.Engine
	htlc      *htlc.Engine
	bets      *bet.Engine
	priceBets *bet.PriceEngine
	vesting   *vesting.Engine
	splitter  *splitter.Engine
	vaults    *vault.Engine
	crowdfund *crowdfund.Engine
	auctions  *auction.Engine
}

// NewNode constructs a node over db using the supplied configuration. The
// prometheus registerer may be nil to use the default registry.
func NewNode(db storage.Database, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: nil database")
	}
	if cfg == nil {
		cfg = &config.Config{}
		cfg.Normalise()
	}
	if logger == nil {
		logger = slog.Default()
	}
	treasury, err := cfg.TreasuryAddress()
	if err != nil {
		return nil, err
	}

	n := &Node{
		db:     db,
		state:  state.NewManager(db),
		events: events.NewCollector(),
		oracle: oracle.NewAggregator(cfg.Oracle.Priority, time.Duration(cfg.Oracle.MaxQuoteAgeSeconds)*time.Second),
		logger: logger.With("component", "node"),
	}
	n.emitter = metrics.NewEmitter(reg, n.events)

	n.escrow = escrow.NewEngine()
	n.escrow.SetState(n.state)
	n.escrow.SetEmitter(n.emitter)
	n.escrow.SetFeeTreasury(treasury)

	n.htlc = htlc.NewEngine()
	n.htlc.SetState(n.state)
	n.htlc.SetEmitter(n.emitter)

	n.bets = bet.NewEngine()
	n.bets.SetState(n.state)
	n.bets.SetEmitter(n.emitter)

	n.priceBets = bet.NewPriceEngine(cfg.Oracle.MaxQuoteAgeSeconds)
	n.priceBets.SetState(n.state)
	n.priceBets.SetEmitter(n.emitter)
	n.priceBets.SetSource(n.oracle)

	n.vesting = vesting.NewEngine()
	n.vesting.SetState(n.state)
	n.vesting.SetEmitter(n.emitter)

	n.splitter = splitter.NewEngine()
	n.splitter.SetState(n.state)
	n.splitter.SetEmitter(n.emitter)

	n.vaults = vault.NewEngine()
	n.vaults.SetState(n.state)
	n.vaults.SetEmitter(n.emitter)
	n.vaults.SetWaitBounds(cfg.Vault.MinWaitSeconds, cfg.Vault.MaxWaitSeconds)

	n.crowdfund = crowdfund.NewEngine()
	n.crowdfund.SetState(n.state)
	n.crowdfund.SetEmitter(n.emitter)

	n.auctions = auction.NewEngine()
	n.auctions.SetState(n.state)
	n.auctions.SetEmitter(n.emitter)

	return n, nil
}

// SetNowFunc injects a deterministic clock into every engine. Replays supply
// the recorded timestamps through this hook.
func (n *Node) SetNowFunc(now func() int64) {
	n.escrow.SetNowFunc(now)
	n.htlc.SetNowFunc(now)
	n.bets.SetNowFunc(now)
	n.priceBets.SetNowFunc(now)
	n.vesting.SetNowFunc(now)
	n.splitter.SetNowFunc(now)
	n.vaults.SetNowFunc(now)
	n.crowdfund.SetNowFunc(now)
	n.auctions.SetNowFunc(now)
	n.oracle.SetNowFunc(now)
}

// RegisterOracleSource attaches a named quote source to the aggregator.
func (n *Node) RegisterOracleSource(name string, source oracle.Source) {
	n.oracle.Register(name, source)
}

// DrainEvents returns the events emitted since the previous drain.
func (n *Node) DrainEvents() []events.Event {
	return n.events.Drain()
}

func (n *Node) State() *state.Manager        { return n.state }
func (n *Node) Oracle() *oracle.Aggregator   { return n.oracle }
func (n *Node) Escrow() *escrow.Engine       { return n.escrow }
func (n *Node) HTLC() *htlc.Engine           { return n.htlc }
func (n *Node) Bets() *bet.Engine            { return n.bets }
func (n *Node) PriceBets() *bet.PriceEngine  { return n.priceBets }
func (n *Node) Vesting() *vesting.Engine     { return n.vesting }
func (n *Node) Splitter() *splitter.Engine   { return n.splitter }
func (n *Node) Vaults() *vault.Engine        { return n.vaults }
func (n *Node) Crowdfund() *crowdfund.Engine { return n.crowdfund }
func (n *Node) Auctions() *auction.Engine    { return n.auctions }

// Close releases the backing database.
func (n *Node) Close() error {
	n.logger.Info("closing node")
	return n.db.Close()
}
