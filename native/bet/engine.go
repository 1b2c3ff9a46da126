package bet

import (
	"errors"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

var errNilState = errors.New("bet engine: state not configured")

type engineState interface {
	BetPut(*Bet) error
	BetGet(id [32]byte) (*Bet, bool)
	BetCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	BetDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine implements the two-party wager bet. The oracle names the winner
// while now <= deadline; once now > deadline either participant's wager can
// only flow back to its contributor.
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
		return common.Guard(view, "bet")
	}
	return nil
}

// Create opens a new bet: the initiator stakes the wager, names the deciding
// oracle and the deadline. The identifier is derived from the initiator,
// oracle and name seeds.
func (e *Engine) Create(initiator, oracle [20]byte, name, token string, wager *big.Int, deadline int64) (*Bet, error) {
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
	if wager == nil || wager.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if initiator == oracle {
		return nil, ErrDuplicateParty
	}
	now := e.now()
	if deadline <= now {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(initiator[:], oracle[:], []byte(name))
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.BetGet(id); ok {
		return nil, ErrAlreadyExists
	}
	b := &Bet{
		ID:        id,
		Initiator: initiator,
		Oracle:    oracle,
		Token:     normalized,
		Wager:     new(big.Int).Set(wager),
		Deadline:  deadline,
		CreatedAt: now,
		Status:    StatusOpen,
	}
	if err := e.state.BetCredit(id, initiator, normalized, b.Wager); err != nil {
		return nil, err
	}
	if err := e.state.BetPut(b); err != nil {
		return nil, err
	}
	e.emit(events.BetCreated{ID: b.ID, Initiator: b.Initiator, Oracle: b.Oracle, Token: b.Token, Wager: b.Wager, Deadline: b.Deadline})
	return b.Clone(), nil
}

// Join stakes the matching wager for the counterparty and activates the bet.
// The counterparty must differ from both existing parties and the supplied
// wager must match the initiator's exactly.
func (e *Engine) Join(id [32]byte, counterparty [20]byte, wager *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.BetGet(id)
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusOpen {
		return ErrWrongState
	}
	if counterparty == b.Initiator || counterparty == b.Oracle {
		return ErrDuplicateParty
	}
	if !predicate.ReleaseWindowOpen(e.now(), b.Deadline) {
		return ErrDeadlineExpired
	}
	if wager == nil || b.Wager.Cmp(wager) != 0 {
		return ErrAmountMismatch
	}
	if err := e.state.BetCredit(id, counterparty, b.Token, b.Wager); err != nil {
		return err
	}
	b.Counterparty = counterparty
	b.Status = StatusActive
	if err := e.state.BetPut(b); err != nil {
		return err
	}
	e.emit(events.BetJoined{ID: b.ID, Counterparty: counterparty, Wager: b.Wager})
	return nil
}

// Win pays the full pot to the named winner. Only the oracle may call, only
// while the deadline is open, and the winner must be one of the two
// participants.
func (e *Engine) Win(id [32]byte, caller, winner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.BetGet(id)
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusActive {
		return ErrWrongState
	}
	if caller != b.Oracle {
		return ErrUnauthorized
	}
	if winner != b.Initiator && winner != b.Counterparty {
		return ErrNotAParty
	}
	if !predicate.ReleaseWindowOpen(e.now(), b.Deadline) {
		return ErrDeadlineExpired
	}
	pot := new(big.Int).Lsh(b.Wager, 1)
	if err := e.state.BetDebit(id, winner, b.Token, pot); err != nil {
		return err
	}
	b.Winner = winner
	b.Status = StatusResolved
	if err := e.state.BetPut(b); err != nil {
		return err
	}
	e.emit(events.BetWon{ID: b.ID, Winner: winner, Pot: pot})
	return nil
}

// Timeout returns each staked wager to its contributor once the deadline has
// passed. An open bet refunds only the initiator. Anyone may invoke the
// transition.
func (e *Engine) Timeout(id [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	b, ok := e.state.BetGet(id)
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusOpen && b.Status != StatusActive {
		return ErrWrongState
	}
	if !predicate.TimeoutReached(e.now(), b.Deadline) {
		return ErrDeadlineNotReached
	}
	if err := e.state.BetDebit(id, b.Initiator, b.Token, b.Wager); err != nil {
		return err
	}
	refunded := new(big.Int).Set(b.Wager)
	if b.Status == StatusActive {
		if err := e.state.BetDebit(id, b.Counterparty, b.Token, b.Wager); err != nil {
			return err
		}
		refunded.Lsh(refunded, 1)
	}
	b.Status = StatusTimedOut
	if err := e.state.BetPut(b); err != nil {
		return err
	}
	e.emit(events.BetTimedOut{ID: b.ID, Refunded: refunded})
	return nil
}
