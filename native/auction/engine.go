package auction

import (
	"fmt"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

type engineState interface {
	AuctionPut(a *Auction) error
	AuctionGet(id [32]byte) (*Auction, bool)
	AuctionCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	AuctionDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine coordinates open-outcry auctions. Each bid must strictly beat the
// current price and is taken into custody; the outbid bidder is refunded in
// the same transition, so custody only ever holds the single highest bid.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, nowFn: func() int64 { return time.Now().Unix() }}
}

func (e *Engine) SetState(state engineState) { e.state = state }
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}
func (e *Engine) SetNowFunc(now func() int64) {
	if now != nil {
		e.nowFn = now
	}
}

func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "auction")
	}
	return nil
}

// Create opens an auction with the given reserve price and bidding deadline.
// A zero reserve is allowed; the first bid still has to exceed it. No funds
// move at creation.
func (e *Engine) Create(seller [20]byte, token string, reserve *big.Int, deadline int64, name []byte) (*Auction, error) {
	if e.state == nil {
		return nil, fmt.Errorf("auction: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if reserve == nil || reserve.Sign() < 0 {
		return nil, ErrInvalidReserve
	}
	if deadline <= e.nowFn() {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(seller[:], []byte(normalized), name)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.AuctionGet(id); ok {
		return nil, ErrAlreadyExists
	}
	record := &Auction{
		ID:         id,
		Seller:     seller,
		Token:      normalized,
		Reserve:    new(big.Int).Set(reserve),
		HighestBid: big.NewInt(0),
		Deadline:   deadline,
		CreatedAt:  e.nowFn(),
		Status:     StatusActive,
	}
	if err := e.state.AuctionPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AuctionEvent{Type: events.TypeAuctionCreated, ID: id, Actor: seller, Token: record.Token, Amount: reserve})
	return record.Clone(), nil
}

// Bid places amount as the new highest bid. The bid must strictly exceed the
// reserve for a first bid and the standing bid afterwards; the outbid bidder
// gets their funds back out of custody before the record updates.
func (e *Engine) Bid(bidder [20]byte, id [32]byte, amount *big.Int) error {
	if e.state == nil {
		return fmt.Errorf("auction: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok := e.state.AuctionGet(id)
	if !ok {
		return ErrNotFound
	}
	if record.Status != StatusActive {
		return ErrWrongState
	}
	if !predicate.ReleaseWindowOpen(e.nowFn(), record.Deadline) {
		return ErrDeadlineExpired
	}
	if bidder == record.Seller {
		return ErrSellerCannotBid
	}
	floor := record.Reserve
	if record.HasBid() {
		floor = record.HighestBid
	}
	if amount.Cmp(floor) <= 0 {
		return ErrBidTooLow
	}
	if err := e.state.AuctionCredit(id, bidder, record.Token, amount); err != nil {
		return err
	}
	var refunded *big.Int
	if record.HasBid() {
		refunded = new(big.Int).Set(record.HighestBid)
		if err := e.state.AuctionDebit(id, record.HighestBidder, record.Token, refunded); err != nil {
			return err
		}
	}
	record.HighestBidder = bidder
	record.HighestBid = new(big.Int).Set(amount)
	if err := e.state.AuctionPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.AuctionEvent{Type: events.TypeAuctionBid, ID: id, Actor: bidder, Token: record.Token, Amount: amount, Refunded: refunded})
	return nil
}

// Settle closes the auction once bidding has ended. Only the seller may
// settle; the highest bid moves from custody to the seller, or nothing moves
// when no bid was placed.
func (e *Engine) Settle(caller [20]byte, id [32]byte) error {
	if e.state == nil {
		return fmt.Errorf("auction: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, ok := e.state.AuctionGet(id)
	if !ok {
		return ErrNotFound
	}
	if record.Status != StatusActive {
		return ErrWrongState
	}
	if caller != record.Seller {
		return ErrUnauthorized
	}
	if !predicate.TimeoutReached(e.nowFn(), record.Deadline) {
		return ErrDeadlineNotReached
	}
	if record.HasBid() {
		if err := e.state.AuctionDebit(id, record.Seller, record.Token, record.HighestBid); err != nil {
			return err
		}
	}
	record.Status = StatusSettled
	if err := e.state.AuctionPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.AuctionEvent{Type: events.TypeAuctionSettled, ID: id, Actor: record.Seller, Winner: record.HighestBidder, Token: record.Token, Amount: record.HighestBid})
	return nil
}
