package vesting

import (
	"errors"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

var errNilState = errors.New("vesting engine: state not configured")

type engineState interface {
	VestingPut(*Schedule) error
	VestingGet(id [32]byte) (*Schedule, bool)
	VestingCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	VestingDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine implements linear vesting. Release pays the newly vested delta to
// the beneficiary; once the cumulative release reaches the total the schedule
// completes and rejects further transitions.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "vesting")
	}
	return nil
}

// Create validates the schedule and atomically moves the full total from the
// funder into custody. Start may lie in the past (vesting is then already
// partially accrued) but the duration must be positive.
func (e *Engine) Create(funder, beneficiary [20]byte, token string, total *big.Int, start, duration int64) (*Schedule, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if total == nil || total.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if duration <= 0 {
		return nil, ErrInvalidTiming
	}
	if funder == beneficiary {
		return nil, ErrDuplicateParty
	}
	id, err := common.Resolve(funder[:], beneficiary[:], []byte(normalized))
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.VestingGet(id); ok {
		return nil, ErrAlreadyExists
	}
	s := &Schedule{
		ID:          id,
		Funder:      funder,
		Beneficiary: beneficiary,
		Token:       normalized,
		Total:       new(big.Int).Set(total),
		Released:    big.NewInt(0),
		Start:       start,
		Duration:    duration,
		CreatedAt:   e.now(),
		Status:      StatusActive,
	}
	if err := e.state.VestingCredit(id, funder, normalized, s.Total); err != nil {
		return nil, err
	}
	if err := e.state.VestingPut(s); err != nil {
		return nil, err
	}
	e.emit(events.VestingCreated{
		ID:          s.ID,
		Funder:      s.Funder,
		Beneficiary: s.Beneficiary,
		Token:       s.Token,
		Total:       s.Total,
		Start:       s.Start,
		Duration:    s.Duration,
	})
	return s.Clone(), nil
}

// Releasable reports the amount the beneficiary could withdraw right now.
func (e *Engine) Releasable(id [32]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	s, ok := e.state.VestingGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	vested := predicate.VestedAmount(s.Total, s.Start, s.Duration, e.now())
	return vested.Sub(vested, s.Released), nil
}

// Release pays the newly vested delta to the beneficiary. Only the
// beneficiary may call. A repeat call with nothing newly vested fails with
// ErrNothingToRelease and moves no value. Draining the schedule completes it.
func (e *Engine) Release(id [32]byte, caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	s, ok := e.state.VestingGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status != StatusActive {
		return nil, ErrWrongState
	}
	if caller != s.Beneficiary {
		return nil, ErrUnauthorized
	}
	vested := predicate.VestedAmount(s.Total, s.Start, s.Duration, e.now())
	releasable := new(big.Int).Sub(vested, s.Released)
	if releasable.Sign() <= 0 {
		return nil, ErrNothingToRelease
	}
	if err := e.state.VestingDebit(id, s.Beneficiary, s.Token, releasable); err != nil {
		return nil, err
	}
	s.Released = new(big.Int).Add(s.Released, releasable)
	completed := s.Released.Cmp(s.Total) >= 0
	if completed {
		s.Status = StatusCompleted
	}
	if err := e.state.VestingPut(s); err != nil {
		return nil, err
	}
	e.emit(events.VestingReleased{ID: s.ID, Beneficiary: s.Beneficiary, Amount: releasable, TotalReleased: s.Released})
	if completed {
		e.emit(events.VestingCompleted{ID: s.ID, Beneficiary: s.Beneficiary, Total: s.Total})
	}
	return releasable, nil
}
