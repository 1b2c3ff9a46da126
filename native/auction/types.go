package auction

import (
	"errors"
	"math/big"
)

// Status represents the auction lifecycle. The auction keeps accepting bids
// while active; Settled marks a closed sale the seller has collected.
type Status uint8

const (
	StatusActive Status = iota
	StatusSettled
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSettled
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("auction: not found")
	ErrAlreadyExists      = errors.New("auction: identifier already exists")
	ErrInvalidReserve     = errors.New("auction: reserve must not be negative")
	ErrInvalidAmount      = errors.New("auction: amount must be positive")
	ErrInvalidTiming      = errors.New("auction: deadline must be in the future")
	ErrWrongState         = errors.New("auction: invalid state for transition")
	ErrUnauthorized       = errors.New("auction: unauthorized caller")
	ErrDeadlineExpired    = errors.New("auction: bidding has closed")
	ErrDeadlineNotReached = errors.New("auction: bidding is still open")
	ErrSellerCannotBid    = errors.New("auction: seller cannot bid")
	ErrBidTooLow          = errors.New("auction: bid does not beat the current price")
)

// Auction sells one lot to the highest bidder before a deadline. Reserve is
// the seller's asking floor; HighestBidder stays zero until a first bid lands
// and only the highest bid is ever held in custody.
type Auction struct {
	ID            [32]byte
	Seller        [20]byte
	Token         string
	Reserve       *big.Int
	HighestBid    *big.Int
	HighestBidder [20]byte
	Deadline      int64
	CreatedAt     int64
	Status        Status
}

// HasBid reports whether any bid has been placed.
func (a *Auction) HasBid() bool {
	return a.HighestBidder != ([20]byte{})
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Reserve != nil {
		clone.Reserve = new(big.Int).Set(a.Reserve)
	} else {
		clone.Reserve = big.NewInt(0)
	}
	if a.HighestBid != nil {
		clone.HighestBid = new(big.Int).Set(a.HighestBid)
	} else {
		clone.HighestBid = big.NewInt(0)
	}
	return &clone
}
