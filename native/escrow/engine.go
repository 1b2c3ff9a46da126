package escrow

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

var (
	errNilState    = errors.New("escrow engine: state not configured")
	errNilTreasury = errors.New("escrow engine: fee treasury not configured")
)

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id [32]byte) (*Escrow, bool)
	// EscrowCredit moves amt from the account into the record's custody.
	EscrowCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	// EscrowDebit moves amt out of the record's custody to the account.
	EscrowDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
	EscrowBalance(id [32]byte, token string) (*big.Int, error)
}

// Engine wires the deposit-escrow state machine with external state and event
// emitters. All deadline comparisons use one injected clock: release paths
// require now <= deadline, the expiry path requires now > deadline, so for any
// instant exactly one of the two is open.
type Engine struct {
	state       engineState
	emitter     events.Emitter
	feeTreasury [20]byte
	nowFn       func() int64
}

// NewEngine creates an escrow engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFeeTreasury configures the address that receives escrow fees.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
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

// guard refuses transitions while the module is administratively paused.
// State backends that do not expose a pause view skip the check.
func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "escrow")
	}
	return nil
}

func (e *Engine) load(id [32]byte) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return esc, nil
}

// Create validates and persists a new escrow definition. No value moves until
// Fund. The identifier is derived from the payer, payee and name seeds, so
// the same seeds always resolve to the same record.
func (e *Engine) Create(payer, payee [20]byte, name, token string, amount *big.Int, feeBps uint32, deadline int64, mediatorOpt *[20]byte) (*Escrow, error) {
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
	if feeBps > 10_000 {
		return nil, ErrFeeOutOfRange
	}
	if payer == payee {
		return nil, ErrDuplicateParty
	}
	mediator := [20]byte{}
	if mediatorOpt != nil {
		mediator = *mediatorOpt
		if mediator == payer || mediator == payee {
			return nil, ErrDuplicateParty
		}
	}
	now := e.now()
	if deadline <= now {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(payer[:], payee[:], []byte(name))
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.EscrowGet(id); ok {
		return nil, ErrAlreadyExists
	}
	esc := &Escrow{
		ID:        id,
		Payer:     payer,
		Payee:     payee,
		Mediator:  mediator,
		Token:     normalized,
		Amount:    new(big.Int).Set(amount),
		Released:  big.NewInt(0),
		FeeBps:    feeBps,
		Deadline:  deadline,
		CreatedAt: now,
		Status:    StatusInit,
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	e.emit(events.EscrowCreated{
		ID:        esc.ID,
		Payer:     esc.Payer,
		Payee:     esc.Payee,
		Token:     esc.Token,
		Amount:    esc.Amount,
		Deadline:  esc.Deadline,
		CreatedAt: esc.CreatedAt,
	})
	return esc.Clone(), nil
}

// Fund moves the escrow amount from the payer into custody and marks the
// record funded. Only the payer may fund, and only while the deadline is open.
func (e *Engine) Fund(id [32]byte, from [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusInit {
		return ErrWrongState
	}
	if esc.Payer != from {
		return ErrUnauthorized
	}
	if !predicate.ReleaseWindowOpen(e.now(), esc.Deadline) {
		return ErrDeadlineExpired
	}
	if err := e.state.EscrowCredit(id, esc.Payer, esc.Token, esc.Amount); err != nil {
		return err
	}
	esc.Status = StatusFunded
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(events.EscrowTransition{Type: events.TypeEscrowFunded, ID: esc.ID, Caller: from, Token: esc.Token, Amount: esc.Amount})
	return nil
}

// Release settles the escrow in favour of the payee, distributing any fee to
// the configured treasury. The payee may release while the deadline is open;
// the mediator may release a funded or disputed record at any time.
func (e *Engine) Release(id [32]byte, caller [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusFunded && esc.Status != StatusDisputed {
		return ErrWrongState
	}
	mediator := esc.Mediator != ([20]byte{}) && caller == esc.Mediator
	if !mediator {
		if caller != esc.Payee {
			return ErrUnauthorized
		}
		if esc.Status == StatusDisputed {
			return ErrUnauthorized
		}
		if !predicate.ReleaseWindowOpen(e.now(), esc.Deadline) {
			return ErrDeadlineExpired
		}
	}
	total := new(big.Int).Set(esc.Amount)
	fee := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(esc.FeeBps)))
	fee.Quo(fee, big.NewInt(10_000))
	if fee.Sign() > 0 && e.feeTreasury == ([20]byte{}) {
		return errNilTreasury
	}
	payout := new(big.Int).Sub(total, fee)
	if payout.Sign() > 0 {
		if err := e.state.EscrowDebit(id, esc.Payee, esc.Token, payout); err != nil {
			return err
		}
	}
	if fee.Sign() > 0 {
		if err := e.state.EscrowDebit(id, e.feeTreasury, esc.Token, fee); err != nil {
			return err
		}
	}
	esc.Released = total
	esc.Status = StatusReleased
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(events.EscrowTransition{Type: events.TypeEscrowReleased, ID: esc.ID, Caller: caller, Token: esc.Token, Amount: total})
	return nil
}

// Refund returns custodied funds to the payer. The payee may refund while the
// deadline is open; the mediator may refund a disputed record.
func (e *Engine) Refund(id [32]byte, caller [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	switch esc.Status {
	case StatusFunded:
		if caller != esc.Payee {
			return ErrUnauthorized
		}
		if !predicate.ReleaseWindowOpen(e.now(), esc.Deadline) {
			return ErrDeadlineExpired
		}
	case StatusDisputed:
		if esc.Mediator == ([20]byte{}) || caller != esc.Mediator {
			return ErrUnauthorized
		}
	default:
		return ErrWrongState
	}
	return e.refund(esc, caller, StatusRefunded, events.TypeEscrowRefunded)
}

// Expire returns custodied funds to the payer once the deadline has passed.
// Anyone may invoke the expiry transition.
func (e *Engine) Expire(id [32]byte, caller [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusFunded {
		return ErrWrongState
	}
	if !predicate.TimeoutReached(e.now(), esc.Deadline) {
		return ErrDeadlineNotReached
	}
	return e.refund(esc, caller, StatusExpired, events.TypeEscrowExpired)
}

// Dispute flags a funded escrow as disputed. Only the payer or payee may
// invoke the transition, and only when a mediator was named at creation.
func (e *Engine) Dispute(id [32]byte, caller [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusFunded {
		return ErrWrongState
	}
	if caller != esc.Payer && caller != esc.Payee {
		return ErrUnauthorized
	}
	if esc.Mediator == ([20]byte{}) {
		return ErrUnauthorized
	}
	esc.Status = StatusDisputed
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(events.EscrowTransition{Type: events.TypeEscrowDisputed, ID: esc.ID, Caller: caller, Token: esc.Token, Amount: esc.Amount})
	return nil
}

// Resolve settles a disputed escrow according to the mediator-determined
// outcome. Valid outcomes are "release" and "refund".
func (e *Engine) Resolve(id [32]byte, caller [20]byte, outcome string) error {
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusDisputed {
		return ErrWrongState
	}
	if esc.Mediator == ([20]byte{}) || caller != esc.Mediator {
		return ErrUnauthorized
	}
	var txErr error
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "release":
		txErr = e.Release(id, caller)
	case "refund":
		txErr = e.Refund(id, caller)
	default:
		return ErrInvalidOutcome
	}
	if txErr != nil {
		return txErr
	}
	esc, err = e.load(id)
	if err != nil {
		return err
	}
	e.emit(events.EscrowTransition{Type: events.TypeEscrowResolved, ID: esc.ID, Caller: caller, Token: esc.Token, Amount: esc.Amount})
	return nil
}

func (e *Engine) refund(esc *Escrow, caller [20]byte, status Status, eventType string) error {
	amount := new(big.Int).Set(esc.Amount)
	if err := e.state.EscrowDebit(esc.ID, esc.Payer, esc.Token, amount); err != nil {
		return err
	}
	esc.Status = status
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(events.EscrowTransition{Type: eventType, ID: esc.ID, Caller: caller, Token: esc.Token, Amount: amount})
	return nil
}

