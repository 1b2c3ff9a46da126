package vesting

import (
	"errors"
	"math/big"
)

// Status represents the lifecycle of a vesting schedule. The schedule is
// funded in full at creation and drains through incremental releases.
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
	ErrNotFound         = errors.New("vesting: not found")
	ErrAlreadyExists    = errors.New("vesting: identifier already exists")
	ErrInvalidAmount    = errors.New("vesting: total must be positive")
	ErrInvalidTiming    = errors.New("vesting: duration must be positive")
	ErrDuplicateParty   = errors.New("vesting: funder and beneficiary must differ")
	ErrWrongState       = errors.New("vesting: schedule already completed")
	ErrUnauthorized     = errors.New("vesting: unauthorized caller")
	ErrNothingToRelease = errors.New("vesting: nothing vested since last release")
)

// Schedule is a linear vesting schedule: Total vests continuously between
// Start and Start+Duration. Released tracks the cumulative amount already
// paid out so repeated release calls stay idempotent.
type Schedule struct {
	ID          [32]byte
	Funder      [20]byte
	Beneficiary [20]byte
	Token       string
	Total       *big.Int
	Released    *big.Int
	Start       int64
	Duration    int64
	CreatedAt   int64
	Status      Status
}

// Clone returns a deep copy of the schedule.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Total != nil {
		clone.Total = new(big.Int).Set(s.Total)
	} else {
		clone.Total = big.NewInt(0)
	}
	if s.Released != nil {
		clone.Released = new(big.Int).Set(s.Released)
	} else {
		clone.Released = big.NewInt(0)
	}
	return &clone
}
