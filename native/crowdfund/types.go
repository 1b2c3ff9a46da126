package crowdfund

import (
	"errors"
	"math/big"
)

// Status represents the campaign lifecycle. A campaign stays active after its
// deadline so donors can reclaim a failed raise; Withdrawn marks a successful
// raise the owner has collected.
type Status uint8

const (
	StatusActive Status = iota
	StatusWithdrawn
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusWithdrawn
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("crowdfund: not found")
	ErrAlreadyExists      = errors.New("crowdfund: identifier already exists")
	ErrInvalidAmount      = errors.New("crowdfund: amount must be positive")
	ErrInvalidGoal        = errors.New("crowdfund: goal must be positive")
	ErrInvalidTiming      = errors.New("crowdfund: deadline must be in the future")
	ErrWrongState         = errors.New("crowdfund: invalid state for transition")
	ErrUnauthorized       = errors.New("crowdfund: unauthorized caller")
	ErrDeadlineExpired    = errors.New("crowdfund: deadline has passed")
	ErrDeadlineNotReached = errors.New("crowdfund: deadline has not passed")
	ErrGoalNotMet         = errors.New("crowdfund: goal was not met")
	ErrGoalMet            = errors.New("crowdfund: goal was met")
	ErrNothingToReclaim   = errors.New("crowdfund: nothing to reclaim")
)

// Donation is one donor's cumulative contribution.
type Donation struct {
	Donor  [20]byte
	Amount *big.Int
}

// Campaign raises funds toward a goal before a deadline. Raised is the total
// ever donated; Reclaimed tracks refunds paid out after a failed raise.
type Campaign struct {
	ID        [32]byte
	Owner     [20]byte
	Token     string
	Goal      *big.Int
	Raised    *big.Int
	Reclaimed *big.Int
	Donations []Donation
	Deadline  int64
	CreatedAt int64
	Status    Status
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Goal != nil {
		clone.Goal = new(big.Int).Set(c.Goal)
	}
	if c.Raised != nil {
		clone.Raised = new(big.Int).Set(c.Raised)
	} else {
		clone.Raised = big.NewInt(0)
	}
	if c.Reclaimed != nil {
		clone.Reclaimed = new(big.Int).Set(c.Reclaimed)
	} else {
		clone.Reclaimed = big.NewInt(0)
	}
	clone.Donations = make([]Donation, len(c.Donations))
	for i, d := range c.Donations {
		clone.Donations[i] = Donation{Donor: d.Donor, Amount: big.NewInt(0)}
		if d.Amount != nil {
			clone.Donations[i].Amount = new(big.Int).Set(d.Amount)
		}
	}
	return &clone
}

// GoalMet reports whether the raise reached its goal.
func (c *Campaign) GoalMet() bool {
	return c.Raised != nil && c.Goal != nil && c.Raised.Cmp(c.Goal) >= 0
}

func (c *Campaign) donationIndex(donor [20]byte) int {
	for i, d := range c.Donations {
		if d.Donor == donor {
			return i
		}
	}
	return -1
}
