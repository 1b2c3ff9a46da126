package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeAuctionCreated = "auction.created"
	TypeAuctionBid     = "auction.bid"
	TypeAuctionSettled = "auction.settled"
)

// AuctionEvent covers the auction lifecycle. Refunded carries the outbid
// amount returned on a bid; Winner is only set when a settled auction had a
// bid.
type AuctionEvent struct {
	Type     string
	ID       [32]byte
	Actor    [20]byte
	Winner   [20]byte
	Token    string
	Amount   *big.Int
	Refunded *big.Int
}

func (e AuctionEvent) EventType() string { return e.Type }

func (e AuctionEvent) Event() *types.Event {
	attrs := map[string]string{
		"id":    hexID(e.ID),
		"actor": hexAddr(e.Actor),
		"token": e.Token,
	}
	if e.Winner != ([20]byte{}) {
		attrs["winner"] = hexAddr(e.Winner)
	}
	if e.Amount != nil {
		attrs["amount"] = formatAmount(e.Amount)
	}
	if e.Refunded != nil {
		attrs["refunded"] = formatAmount(e.Refunded)
	}
	return &types.Event{Type: e.Type, Attributes: attrs}
}
