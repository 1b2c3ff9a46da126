package splitter

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

type engineState interface {
	SplitterPut(s *Splitter) error
	SplitterGet(id [32]byte) (*Splitter, bool)
	SplitterCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	SplitterDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
	SplitterBalance(id [32]byte, token string) (*big.Int, error)
}

// Engine coordinates proportional payment splitters. Shares are fixed at
// creation; every payment into the splitter becomes claimable by each payee
// pro rata, with division truncated toward zero. Rounding dust accumulates in
// custody and is swept to the final payee when the splitter is closed.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, nowFn: func() int64 { return time.Now().Unix() }}
}

func (e *Engine) SetState(state engineState)      { e.state = state }
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}
func (e *Engine) SetNowFunc(now func() int64) {
	if now != nil {
		e.nowFn = now
	}
}

func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "splitter")
	}
	return nil
}

// Create registers a splitter for the given payees and share weights. The
// payee list must be non-empty, free of duplicates, and every share must be
// positive. No funds move at creation.
func (e *Engine) Create(funder [20]byte, token string, payees [][20]byte, shares []uint64, name []byte) (*Splitter, error) {
	if e.state == nil {
		return nil, fmt.Errorf("splitter: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if len(payees) == 0 {
		return nil, ErrNoPayees
	}
	if len(payees) != len(shares) {
		return nil, fmt.Errorf("splitter: %d payees with %d shares", len(payees), len(shares))
	}
	var totalShares uint64
	seen := make(map[[20]byte]struct{}, len(payees))
	for i, addr := range payees {
		if _, dup := seen[addr]; dup {
			return nil, ErrDuplicatePayee
		}
		seen[addr] = struct{}{}
		if shares[i] == 0 {
			return nil, ErrZeroShares
		}
		if totalShares > math.MaxUint64-shares[i] {
			return nil, ErrShareOverflow
		}
		totalShares += shares[i]
	}
	id, err := common.Resolve(funder[:], []byte(normalized), name)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.SplitterGet(id); ok {
		return nil, ErrAlreadyExists
	}
	record := &Splitter{
		ID:            id,
		Funder:        funder,
		Token:         normalized,
		TotalShares:   totalShares,
		TotalReceived: big.NewInt(0),
		TotalReleased: big.NewInt(0),
		CreatedAt:     e.nowFn(),
		Status:        StatusActive,
	}
	record.Payees = make([]Payee, len(payees))
	for i, addr := range payees {
		record.Payees[i] = Payee{Address: addr, Share: shares[i], Released: big.NewInt(0)}
	}
	if err := e.state.SplitterPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SplitterCreated{ID: id, Funder: funder, Token: record.Token, PayeeCount: len(payees), TotalShares: totalShares})
	return record.Clone(), nil
}

// Fund moves amount from the sender into splitter custody. Any address may
// fund an active splitter; each payment raises every payee's entitlement.
func (e *Engine) Fund(from [20]byte, id [32]byte, amount *big.Int) error {
	if e.state == nil {
		return fmt.Errorf("splitter: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok := e.state.SplitterGet(id)
	if !ok {
		return ErrNotFound
	}
	if record.Status != StatusActive {
		return ErrWrongState
	}
	if err := e.state.SplitterCredit(id, from, record.Token, amount); err != nil {
		return err
	}
	record.TotalReceived = new(big.Int).Add(record.TotalReceived, amount)
	if err := e.state.SplitterPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.SplitterFunded{ID: id, From: from, Amount: amount})
	return nil
}

// Releasable reports how much the payee could withdraw right now.
func (e *Engine) Releasable(id [32]byte, payee [20]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, fmt.Errorf("splitter: state not configured")
	}
	record, ok := e.state.SplitterGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	idx := record.payeeIndex(payee)
	if idx < 0 {
		return nil, ErrPayeeNotFound
	}
	return releasable(record, idx), nil
}

// Release pays the caller the portion of all received funds owed to them that
// has not yet been withdrawn. Calling again without new funding returns
// ErrNothingToRelease.
func (e *Engine) Release(caller [20]byte, id [32]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, fmt.Errorf("splitter: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	record, ok := e.state.SplitterGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != StatusActive {
		return nil, ErrWrongState
	}
	idx := record.payeeIndex(caller)
	if idx < 0 {
		return nil, ErrPayeeNotFound
	}
	due := releasable(record, idx)
	if due.Sign() <= 0 {
		return nil, ErrNothingToRelease
	}
	if err := e.state.SplitterDebit(id, caller, record.Token, due); err != nil {
		return nil, err
	}
	record.Payees[idx].Released = new(big.Int).Add(record.Payees[idx].Released, due)
	record.TotalReleased = new(big.Int).Add(record.TotalReleased, due)
	if err := e.state.SplitterPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SplitterReleased{ID: id, Payee: caller, Amount: due})
	return due, nil
}

// Close ends the splitter. Only the funder may close, and only once every
// payee has claimed their full entitlement. Truncation dust left in custody
// is swept to the final payee so the record drains completely.
func (e *Engine) Close(caller [20]byte, id [32]byte) error {
	if e.state == nil {
		return fmt.Errorf("splitter: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, ok := e.state.SplitterGet(id)
	if !ok {
		return ErrNotFound
	}
	if record.Status != StatusActive {
		return ErrWrongState
	}
	if caller != record.Funder {
		return ErrUnauthorized
	}
	for i := range record.Payees {
		if releasable(record, i).Sign() > 0 {
			return ErrNotFullyClaimed
		}
	}
	dust := new(big.Int).Sub(record.TotalReceived, record.TotalReleased)
	if dust.Sign() > 0 {
		last := record.Payees[len(record.Payees)-1]
		if err := e.state.SplitterDebit(id, last.Address, record.Token, dust); err != nil {
			return err
		}
		idx := len(record.Payees) - 1
		record.Payees[idx].Released = new(big.Int).Add(record.Payees[idx].Released, dust)
		record.TotalReleased = new(big.Int).Add(record.TotalReleased, dust)
		e.emitter.Emit(events.SplitterReleased{ID: id, Payee: last.Address, Amount: dust})
	}
	record.Status = StatusCompleted
	if err := e.state.SplitterPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.SplitterCompleted{ID: id, Distributed: record.TotalReceived})
	return nil
}

// releasable computes floor(totalReceived * share / totalShares) minus what
// the payee already withdrew. Truncating keeps the sum of all entitlements
// within the funds actually held.
func releasable(record *Splitter, idx int) *big.Int {
	owed := predicate.OwedShare(record.TotalReceived, record.Payees[idx].Share, record.TotalShares)
	due := new(big.Int).Sub(owed, record.Payees[idx].Released)
	if due.Sign() < 0 {
		return big.NewInt(0)
	}
	return due
}
