package htlc

import (
	"errors"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

var errNilState = errors.New("htlc engine: state not configured")

type engineState interface {
	HTLCPut(*Contract) error
	HTLCGet(id [32]byte) (*Contract, bool)
	HTLCCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	HTLCDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine implements the hash time-locked contract family: the payee claims by
// revealing the preimage while now <= deadline, the payer reclaims once
// now > deadline.
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
		return common.Guard(view, "htlc")
	}
	return nil
}

// Create validates the contract definition, derives its identifier from the
// payer, payee and hash-lock seeds, and atomically moves the locked amount
// into custody.
func (e *Engine) Create(payer, payee [20]byte, token string, amount *big.Int, hashLock [32]byte, deadline int64) (*Contract, error) {
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
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if payer == payee {
		return nil, ErrDuplicateParty
	}
	now := e.now()
	if deadline <= now {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(payer[:], payee[:], hashLock[:])
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.HTLCGet(id); ok {
		return nil, ErrAlreadyExists
	}
	contract := &Contract{
		ID:        id,
		Payer:     payer,
		Payee:     payee,
		Token:     normalized,
		Amount:    new(big.Int).Set(amount),
		HashLock:  hashLock,
		Deadline:  deadline,
		CreatedAt: now,
		Status:    StatusLocked,
	}
	if err := e.state.HTLCCredit(id, payer, normalized, contract.Amount); err != nil {
		return nil, err
	}
	if err := e.state.HTLCPut(contract); err != nil {
		return nil, err
	}
	e.emit(events.HTLCCreated{
		ID:       contract.ID,
		Payer:    contract.Payer,
		Payee:    contract.Payee,
		Token:    contract.Token,
		Amount:   contract.Amount,
		HashLock: contract.HashLock,
		Deadline: contract.Deadline,
	})
	return contract.Clone(), nil
}

// Claim pays the locked amount to the payee when the revealed preimage
// matches the committed hash and the deadline is still open. Only the payee
// may claim.
func (e *Engine) Claim(id [32]byte, caller [20]byte, preimage []byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	contract, ok := e.state.HTLCGet(id)
	if !ok {
		return ErrNotFound
	}
	if contract.Status != StatusLocked {
		return ErrWrongState
	}
	if caller != contract.Payee {
		return ErrUnauthorized
	}
	if !predicate.ReleaseWindowOpen(e.now(), contract.Deadline) {
		return ErrDeadlineExpired
	}
	if err := predicate.VerifyPreimage(contract.HashLock, preimage); err != nil {
		return ErrInvalidPreimage
	}
	if err := e.state.HTLCDebit(id, contract.Payee, contract.Token, contract.Amount); err != nil {
		return err
	}
	contract.Status = StatusClaimed
	if err := e.state.HTLCPut(contract); err != nil {
		return err
	}
	e.emit(events.HTLCClaimed{ID: contract.ID, Payee: contract.Payee, Token: contract.Token, Amount: contract.Amount})
	return nil
}

// Refund returns the locked amount to the payer once the deadline has passed.
// Anyone may invoke the transition; the funds always go back to the payer.
func (e *Engine) Refund(id [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	contract, ok := e.state.HTLCGet(id)
	if !ok {
		return ErrNotFound
	}
	if contract.Status != StatusLocked {
		return ErrWrongState
	}
	if !predicate.TimeoutReached(e.now(), contract.Deadline) {
		return ErrDeadlineNotReached
	}
	if err := e.state.HTLCDebit(id, contract.Payer, contract.Token, contract.Amount); err != nil {
		return err
	}
	contract.Status = StatusRefunded
	if err := e.state.HTLCPut(contract); err != nil {
		return err
	}
	e.emit(events.HTLCRefunded{ID: contract.ID, Payer: contract.Payer, Token: contract.Token, Amount: contract.Amount})
	return nil
}
