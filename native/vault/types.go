package vault

import (
	"errors"
	"math/big"
)

// Status tracks whether a withdrawal is pending on the vault.
type Status uint8

const (
	StatusIdle Status = iota
	StatusRequested
)

func (s Status) Valid() bool {
	return s == StatusIdle || s == StatusRequested
}

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequested:
		return "requested"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound            = errors.New("vault: not found")
	ErrAlreadyExists       = errors.New("vault: identifier already exists")
	ErrInvalidAmount       = errors.New("vault: amount must be positive")
	ErrInvalidWait         = errors.New("vault: wait time out of range")
	ErrSameKey             = errors.New("vault: owner and recovery key must differ")
	ErrWrongState          = errors.New("vault: invalid state for transition")
	ErrUnauthorized        = errors.New("vault: unauthorized caller")
	ErrWaitNotElapsed      = errors.New("vault: wait time has not elapsed")
	ErrInsufficientBalance = errors.New("vault: insufficient balance")
)

// Withdrawal is a pending time-locked withdrawal request.
type Withdrawal struct {
	Amount      *big.Int
	Receiver    [20]byte
	RequestedAt int64
}

func (w *Withdrawal) Clone() *Withdrawal {
	if w == nil {
		return nil
	}
	clone := *w
	if w.Amount != nil {
		clone.Amount = new(big.Int).Set(w.Amount)
	}
	return &clone
}

// Vault holds funds behind a withdrawal delay. The owner requests a
// withdrawal, waits out the delay and finalizes it; the recovery key can
// cancel a request the owner did not intend.
type Vault struct {
	ID        [32]byte
	Owner     [20]byte
	Recovery  [20]byte
	Token     string
	Balance   *big.Int
	WaitTime  int64
	Pending   *Withdrawal
	CreatedAt int64
	Status    Status
}

// Clone returns a deep copy of the vault.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	if v.Balance != nil {
		clone.Balance = new(big.Int).Set(v.Balance)
	}
	clone.Pending = v.Pending.Clone()
	return &clone
}
