package htlc

import (
	"errors"
	"math/big"
)

// Status represents the lifecycle of a hash time-locked contract. The record
// is funded at creation, so there is no separate funding state.
type Status uint8

const (
	StatusLocked Status = iota
	StatusClaimed
	StatusRefunded
)

func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusClaimed, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusClaimed:
		return "claimed"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("htlc: not found")
	ErrAlreadyExists      = errors.New("htlc: identifier already exists")
	ErrInvalidAmount      = errors.New("htlc: amount must be positive")
	ErrInvalidTiming      = errors.New("htlc: deadline not after creation time")
	ErrDuplicateParty     = errors.New("htlc: payer and payee must differ")
	ErrWrongState         = errors.New("htlc: invalid state for transition")
	ErrInvalidPreimage    = errors.New("htlc: preimage does not match hash lock")
	ErrDeadlineExpired    = errors.New("htlc: deadline expired")
	ErrDeadlineNotReached = errors.New("htlc: deadline not reached")
	ErrUnauthorized       = errors.New("htlc: unauthorized caller")
)

// Contract captures a single hash time-locked commitment. HashLock is the
// keccak256 digest of the secret; the secret itself is never stored.
type Contract struct {
	ID        [32]byte
	Payer     [20]byte
	Payee     [20]byte
	Token     string
	Amount    *big.Int
	HashLock  [32]byte
	Deadline  int64
	CreatedAt int64
	Status    Status
}

// Clone returns a deep copy of the contract.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Amount != nil {
		clone.Amount = new(big.Int).Set(c.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}
