package bet

import (
	"errors"
	"math"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/oracle"
	"escrowkit/native/predicate"
)

var errNilOracle = errors.New("bet engine: price source not configured")

type priceBetState interface {
	PriceBetPut(*PriceBet) error
	PriceBetGet(id [32]byte) (*PriceBet, bool)
	PriceBetCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	PriceBetDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// PriceEngine implements the oracle-threshold bet. Joining is open while
// now <= deadline. The player claims the pot with a fresh quote above the
// target while deadline < now <= deadline+claimWindow; once the claim window
// closes the owner reclaims the pot. The two windows never overlap.
type PriceEngine struct {
	state   priceBetState
	source  oracle.Source
	emitter events.Emitter
	maxAge  int64
	nowFn   func() int64
}

// NewPriceEngine creates a price-bet engine. maxAge is the quote freshness
// bound in seconds; zero disables the staleness check.
func NewPriceEngine(maxAge int64) *PriceEngine {
	return &PriceEngine{
		emitter: events.NoopEmitter{},
		maxAge:  maxAge,
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *PriceEngine) SetState(state priceBetState) { e.state = state }

// SetSource configures the price oracle consulted by Win.
func (e *PriceEngine) SetSource(source oracle.Source) { e.source = source }

func (e *PriceEngine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *PriceEngine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *PriceEngine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *PriceEngine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *PriceEngine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "pricebet")
	}
	return nil
}

// Create opens a price bet: the owner stakes the wager against the rate of
// base/quote exceeding targetRate after the deadline.
func (e *PriceEngine) Create(owner [20]byte, name, token string, wager *big.Int, base, quote string, targetRate *big.Int, deadline, claimWindow int64) (*PriceBet, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if wager == nil || wager.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if targetRate == nil || targetRate.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	now := e.now()
	if deadline <= now || claimWindow <= 0 {
		return nil, ErrInvalidTiming
	}
	// The claim window end is computed as deadline+claimWindow later on; a
	// wrapping sum would open the owner's reclaim path immediately.
	if deadline > math.MaxInt64-claimWindow {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(owner[:], []byte(base+"/"+quote), []byte(name))
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.PriceBetGet(id); ok {
		return nil, ErrAlreadyExists
	}
	b := &PriceBet{
		ID:          id,
		Owner:       owner,
		Token:       normalized,
		Wager:       new(big.Int).Set(wager),
		Base:        base,
		Quote:       quote,
		TargetRate:  new(big.Int).Set(targetRate),
		Deadline:    deadline,
		ClaimWindow: claimWindow,
		CreatedAt:   now,
		Status:      StatusOpen,
	}
	if err := e.state.PriceBetCredit(id, owner, normalized, b.Wager); err != nil {
		return nil, err
	}
	if err := e.state.PriceBetPut(b); err != nil {
		return nil, err
	}
	e.emit(events.PriceBetEvent{Type: events.TypePriceBetCreated, ID: b.ID, Actor: owner, Amount: b.Wager, TargetRate: b.TargetRate})
	return b.Clone(), nil
}

// Join stakes the matching wager for the player. The player must differ from
// the owner and must join while the deadline is open.
func (e *PriceEngine) Join(id [32]byte, player [20]byte, wager *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.PriceBetGet(id)
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusOpen {
		return ErrWrongState
	}
	if player == b.Owner {
		return ErrDuplicateParty
	}
	if !predicate.ReleaseWindowOpen(e.now(), b.Deadline) {
		return ErrDeadlineExpired
	}
	if wager == nil || b.Wager.Cmp(wager) != 0 {
		return ErrAmountMismatch
	}
	if err := e.state.PriceBetCredit(id, player, b.Token, b.Wager); err != nil {
		return err
	}
	b.Player = player
	b.Status = StatusActive
	if err := e.state.PriceBetPut(b); err != nil {
		return err
	}
	e.emit(events.PriceBetEvent{Type: events.TypePriceBetJoined, ID: b.ID, Actor: player, Amount: b.Wager})
	return nil
}

// Win pays the pot to the player when a fresh oracle quote exceeds the target
// rate inside the claim window. Only the player may call. Stale or invalid
// quotes fail closed as a predicate failure.
func (e *PriceEngine) Win(id [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.source == nil {
		return errNilOracle
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.PriceBetGet(id)
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusActive {
		return ErrWrongState
	}
	if caller != b.Player {
		return ErrUnauthorized
	}
	now := e.now()
	if !predicate.TimeoutReached(now, b.Deadline) {
		return ErrDeadlineNotReached
	}
	if !predicate.ReleaseWindowOpen(now, b.Deadline+b.ClaimWindow) {
		return ErrDeadlineExpired
	}
	quote, err := e.source.GetRate(b.Base, b.Quote)
	if err != nil {
		return ErrPriceNotSatisfied
	}
	if err := predicate.PriceSatisfied(quote.Rate, b.TargetRate, quote.PublishedAt, now, e.maxAge); err != nil {
		return ErrPriceNotSatisfied
	}
	pot := new(big.Int).Lsh(b.Wager, 1)
	if err := e.state.PriceBetDebit(id, b.Player, b.Token, pot); err != nil {
		return err
	}
	b.Status = StatusResolved
	if err := e.state.PriceBetPut(b); err != nil {
		return err
	}
	e.emit(events.PriceBetEvent{Type: events.TypePriceBetWon, ID: b.ID, Actor: b.Player, Amount: pot, TargetRate: b.TargetRate, QuoteRate: quote.Rate})
	return nil
}

// Timeout returns the pot to the owner. For an open bet this is possible once
// the join deadline passes; for an active bet only after the player's claim
// window has closed.
func (e *PriceEngine) Timeout(id [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.PriceBetGet(id)
	if !ok {
		return ErrNotFound
	}
	now := e.now()
	var pot *big.Int
	switch b.Status {
	case StatusOpen:
		if !predicate.TimeoutReached(now, b.Deadline) {
			return ErrDeadlineNotReached
		}
		pot = new(big.Int).Set(b.Wager)
	case StatusActive:
		if !predicate.TimeoutReached(now, b.Deadline+b.ClaimWindow) {
			return ErrDeadlineNotReached
		}
		pot = new(big.Int).Lsh(b.Wager, 1)
	default:
		return ErrWrongState
	}
	if err := e.state.PriceBetDebit(id, b.Owner, b.Token, pot); err != nil {
		return err
	}
	b.Status = StatusTimedOut
	if err := e.state.PriceBetPut(b); err != nil {
		return err
	}
	e.emit(events.PriceBetEvent{Type: events.TypePriceBetTimedOut, ID: b.ID, Actor: b.Owner, Amount: pot})
	return nil
}
