package escrow

import (
	"errors"
	"math/big"
)

// Status represents the lifecycle states of a deposit escrow. Transitions are
// monotonic: once a record reaches Released, Refunded or Expired it rejects
// every further mutation.
type Status uint8

const (
	StatusInit Status = iota
	StatusFunded
	StatusReleased
	StatusRefunded
	StatusExpired
	StatusDisputed
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusInit, StatusFunded, StatusReleased, StatusRefunded, StatusExpired, StatusDisputed:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusFunded:
		return "funded"
	case StatusReleased:
		return "released"
	case StatusRefunded:
		return "refunded"
	case StatusExpired:
		return "expired"
	case StatusDisputed:
		return "disputed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the record can no longer move.
func (s Status) Terminal() bool {
	switch s {
	case StatusReleased, StatusRefunded, StatusExpired:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound           = errors.New("escrow: not found")
	ErrAlreadyExists      = errors.New("escrow: identifier already exists")
	ErrInvalidAmount      = errors.New("escrow: amount must be positive")
	ErrInvalidTiming      = errors.New("escrow: deadline not after creation time")
	ErrDuplicateParty     = errors.New("escrow: parties must be distinct")
	ErrWrongState         = errors.New("escrow: invalid state for transition")
	ErrDeadlineExpired    = errors.New("escrow: deadline expired")
	ErrDeadlineNotReached = errors.New("escrow: deadline not reached")
	ErrUnauthorized       = errors.New("escrow: unauthorized caller")
	ErrFeeOutOfRange      = errors.New("escrow: fee bps out of range")
	ErrInvalidOutcome     = errors.New("escrow: invalid resolution outcome")
)

// Escrow captures the parties, amount model and runtime status of a single
// deposit escrow. The identifier is derived from the creation-time seeds
// (payer, payee, name) and never changes.
type Escrow struct {
	ID        [32]byte
	Payer     [20]byte
	Payee     [20]byte
	Mediator  [20]byte
	Token     string
	Amount    *big.Int
	Released  *big.Int
	FeeBps    uint32
	Deadline  int64
	CreatedAt int64
	Status    Status
}

// Clone returns a deep copy of the escrow so callers can mutate the copy
// without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if e.Released != nil {
		clone.Released = new(big.Int).Set(e.Released)
	} else {
		clone.Released = big.NewInt(0)
	}
	return &clone
}
