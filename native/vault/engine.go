package vault

import (
	"fmt"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

type engineState interface {
	VaultPut(v *Vault) error
	VaultGet(id [32]byte) (*Vault, bool)
	VaultCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	VaultDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine coordinates time-locked vaults. Withdrawals are a two-step affair so
// a stolen owner key alone cannot drain the vault before the recovery key
// reacts.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	minWait int64
	maxWait int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		minWait: 60,
		maxWait: 90 * 24 * 60 * 60,
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }
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

// SetWaitBounds overrides the accepted withdrawal delay range in seconds.
func (e *Engine) SetWaitBounds(min, max int64) {
	if min > 0 {
		e.minWait = min
	}
	if max >= e.minWait {
		e.maxWait = max
	}
}

func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "vault")
	}
	return nil
}

// Init creates a vault and deposits the initial amount into custody. The
// recovery key must differ from the owner or it adds nothing.
func (e *Engine) Init(owner, recovery [20]byte, token string, waitTime int64, amount *big.Int, name []byte) (*Vault, error) {
	if e.state == nil {
		return nil, fmt.Errorf("vault: state not configured")
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
	if owner == recovery {
		return nil, ErrSameKey
	}
	if waitTime < e.minWait || waitTime > e.maxWait {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidWait, waitTime, e.minWait, e.maxWait)
	}
	id, err := common.Resolve(owner[:], recovery[:], []byte(normalized), name)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.VaultGet(id); ok {
		return nil, ErrAlreadyExists
	}
	if err := e.state.VaultCredit(id, owner, normalized, amount); err != nil {
		return nil, err
	}
	record := &Vault{
		ID:        id,
		Owner:     owner,
		Recovery:  recovery,
		Token:     normalized,
		Balance:   new(big.Int).Set(amount),
		WaitTime:  waitTime,
		CreatedAt: e.nowFn(),
		Status:    StatusIdle,
	}
	if err := e.state.VaultPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VaultEvent{Type: events.TypeVaultCreated, ID: id, Owner: owner, Token: record.Token, Amount: amount})
	return record.Clone(), nil
}

// Deposit adds funds to the vault. Anyone may deposit at any time.
func (e *Engine) Deposit(from [20]byte, id [32]byte, amount *big.Int) error {
	if e.state == nil {
		return fmt.Errorf("vault: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok := e.state.VaultGet(id)
	if !ok {
		return ErrNotFound
	}
	if err := e.state.VaultCredit(id, from, record.Token, amount); err != nil {
		return err
	}
	record.Balance = new(big.Int).Add(record.Balance, amount)
	if err := e.state.VaultPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.VaultEvent{Type: events.TypeVaultDeposited, ID: id, Owner: record.Owner, Depositor: from, Token: record.Token, Amount: amount})
	return nil
}

// Request starts a withdrawal. Only the owner may request, only while no
// other request is pending, and never for more than the vault holds.
func (e *Engine) Request(caller [20]byte, id [32]byte, receiver [20]byte, amount *big.Int) error {
	if e.state == nil {
		return fmt.Errorf("vault: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok := e.state.VaultGet(id)
	if !ok {
		return ErrNotFound
	}
	if caller != record.Owner {
		return ErrUnauthorized
	}
	if record.Status != StatusIdle {
		return ErrWrongState
	}
	if amount.Cmp(record.Balance) > 0 {
		return ErrInsufficientBalance
	}
	record.Pending = &Withdrawal{
		Amount:      new(big.Int).Set(amount),
		Receiver:    receiver,
		RequestedAt: e.nowFn(),
	}
	record.Status = StatusRequested
	if err := e.state.VaultPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.VaultEvent{Type: events.TypeVaultRequested, ID: id, Owner: record.Owner, Receiver: receiver, Token: record.Token, Amount: amount})
	return nil
}

// Finalize pays out a pending withdrawal once the wait time has elapsed.
// Only the owner may finalize.
func (e *Engine) Finalize(caller [20]byte, id [32]byte) error {
	if e.state == nil {
		return fmt.Errorf("vault: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, ok := e.state.VaultGet(id)
	if !ok {
		return ErrNotFound
	}
	if caller != record.Owner {
		return ErrUnauthorized
	}
	if record.Status != StatusRequested || record.Pending == nil {
		return ErrWrongState
	}
	if !predicate.TimeoutReached(e.nowFn(), record.Pending.RequestedAt+record.WaitTime) {
		return ErrWaitNotElapsed
	}
	pending := record.Pending
	if err := e.state.VaultDebit(id, pending.Receiver, record.Token, pending.Amount); err != nil {
		return err
	}
	record.Balance = new(big.Int).Sub(record.Balance, pending.Amount)
	record.Pending = nil
	record.Status = StatusIdle
	if err := e.state.VaultPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.VaultEvent{Type: events.TypeVaultFinalized, ID: id, Owner: record.Owner, Receiver: pending.Receiver, Token: record.Token, Amount: pending.Amount})
	return nil
}

// Cancel aborts a pending withdrawal. Only the recovery key may cancel; the
// funds never leave custody.
func (e *Engine) Cancel(caller [20]byte, id [32]byte) error {
	if e.state == nil {
		return fmt.Errorf("vault: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, ok := e.state.VaultGet(id)
	if !ok {
		return ErrNotFound
	}
	if caller != record.Recovery {
		return ErrUnauthorized
	}
	if record.Status != StatusRequested || record.Pending == nil {
		return ErrWrongState
	}
	cancelled := record.Pending
	record.Pending = nil
	record.Status = StatusIdle
	if err := e.state.VaultPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.VaultEvent{Type: events.TypeVaultCancelled, ID: id, Owner: record.Owner, Receiver: cancelled.Receiver, Token: record.Token, Amount: cancelled.Amount})
	return nil
}
