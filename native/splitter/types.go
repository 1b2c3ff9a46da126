package splitter

import (
	"errors"
	"math/big"
)

// Status represents the lifecycle of a payment splitter. The splitter keeps
// accepting funds while active; Close drains the rounding dust and completes
// the record.
type Status uint8

const (
	StatusActive Status = iota
	StatusCompleted
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound         = errors.New("splitter: not found")
	ErrAlreadyExists    = errors.New("splitter: identifier already exists")
	ErrNoPayees         = errors.New("splitter: at least one payee required")
	ErrDuplicatePayee   = errors.New("splitter: duplicate payee")
	ErrZeroShares       = errors.New("splitter: shares must be positive")
	ErrShareOverflow    = errors.New("splitter: share total overflows")
	ErrInvalidAmount    = errors.New("splitter: amount must be positive")
	ErrWrongState       = errors.New("splitter: invalid state for transition")
	ErrUnauthorized     = errors.New("splitter: unauthorized caller")
	ErrPayeeNotFound    = errors.New("splitter: payee not found")
	ErrNothingToRelease = errors.New("splitter: nothing to release")
	ErrNotFullyClaimed  = errors.New("splitter: payees have unclaimed entitlements")
)

// Payee is one recipient of the split with its share weight and cumulative
// released amount.
type Payee struct {
	Address  [20]byte
	Share    uint64
	Released *big.Int
}

// Splitter distributes everything it receives among its payees in proportion
// to their shares. The payee set and shares are fixed at creation.
type Splitter struct {
	ID            [32]byte
	Funder        [20]byte
	Token         string
	Payees        []Payee
	TotalShares   uint64
	TotalReceived *big.Int
	TotalReleased *big.Int
	CreatedAt     int64
	Status        Status
}

// Clone returns a deep copy of the splitter.
func (s *Splitter) Clone() *Splitter {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Payees = make([]Payee, len(s.Payees))
	for i, p := range s.Payees {
		clone.Payees[i] = Payee{Address: p.Address, Share: p.Share, Released: big.NewInt(0)}
		if p.Released != nil {
			clone.Payees[i].Released = new(big.Int).Set(p.Released)
		}
	}
	if s.TotalReceived != nil {
		clone.TotalReceived = new(big.Int).Set(s.TotalReceived)
	} else {
		clone.TotalReceived = big.NewInt(0)
	}
	if s.TotalReleased != nil {
		clone.TotalReleased = new(big.Int).Set(s.TotalReleased)
	} else {
		clone.TotalReleased = big.NewInt(0)
	}
	return &clone
}

func (s *Splitter) payeeIndex(addr [20]byte) int {
	for i, p := range s.Payees {
		if p.Address == addr {
			return i
		}
	}
	return -1
}
