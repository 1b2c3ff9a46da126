package bet

import (
	"errors"
	"math/big"
)

// Status represents the lifecycle of a wager bet. Open means the initiator
// has staked and a counterparty may still join.
type Status uint8

const (
	StatusOpen Status = iota
	StatusActive
	StatusResolved
	StatusTimedOut
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusActive, StatusResolved, StatusTimedOut:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusActive:
		return "active"
	case StatusResolved:
		return "resolved"
	case StatusTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("bet: not found")
	ErrAlreadyExists      = errors.New("bet: identifier already exists")
	ErrInvalidAmount      = errors.New("bet: wager must be positive")
	ErrInvalidTiming      = errors.New("bet: deadline not after creation time")
	ErrDuplicateParty     = errors.New("bet: parties must be distinct")
	ErrWrongState         = errors.New("bet: invalid state for transition")
	ErrDeadlineExpired    = errors.New("bet: deadline expired")
	ErrDeadlineNotReached = errors.New("bet: deadline not reached")
	ErrUnauthorized       = errors.New("bet: unauthorized caller")
	ErrNotAParty          = errors.New("bet: recipient is not a participant")
	ErrAmountMismatch     = errors.New("bet: wager does not match")
	ErrPriceNotSatisfied  = errors.New("bet: price condition not satisfied")
)

// Bet is a two-party wager decided by a designated oracle before the
// deadline. Counterparty is zero until a second participant joins.
type Bet struct {
	ID           [32]byte
	Initiator    [20]byte
	Counterparty [20]byte
	Oracle       [20]byte
	Winner       [20]byte
	Token        string
	Wager        *big.Int
	Deadline     int64
	CreatedAt    int64
	Status       Status
}

// Clone returns a deep copy of the bet.
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Wager != nil {
		clone.Wager = new(big.Int).Set(b.Wager)
	} else {
		clone.Wager = big.NewInt(0)
	}
	return &clone
}

// PriceBet is a wager on an oracle-reported rate exceeding a target once the
// betting window closes. The player may claim the pot with a fresh winning
// quote during the claim window; afterwards the owner reclaims it.
type PriceBet struct {
	ID          [32]byte
	Owner       [20]byte
	Player      [20]byte
	Token       string
	Wager       *big.Int
	Base        string
	Quote       string
	TargetRate  *big.Int
	Deadline    int64
	ClaimWindow int64
	CreatedAt   int64
	Status      Status
}

// Clone returns a deep copy of the price bet.
func (b *PriceBet) Clone() *PriceBet {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Wager != nil {
		clone.Wager = new(big.Int).Set(b.Wager)
	} else {
		clone.Wager = big.NewInt(0)
	}
	if b.TargetRate != nil {
		clone.TargetRate = new(big.Int).Set(b.TargetRate)
	} else {
		clone.TargetRate = big.NewInt(0)
	}
	return &clone
}
