package crowdfund

import (
	"fmt"
	"math/big"
	"time"

	"escrowkit/core/events"
	"escrowkit/native/common"
	"escrowkit/native/predicate"
)

type engineState interface {
	CampaignPut(c *Campaign) error
	CampaignGet(id [32]byte) (*Campaign, bool)
	CampaignCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error
	CampaignDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error
}

// Engine coordinates crowdfunding campaigns. Donations are held in custody
// until the deadline; afterwards either the owner withdraws a successful
// raise or each donor reclaims their own contribution from a failed one.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, nowFn: func() int64 { return time.Now().Unix() }}
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

func (e *Engine) guard() error {
	if view, ok := e.state.(common.PauseView); ok {
		return common.Guard(view, "crowdfund")
	}
	return nil
}

// Create registers a campaign with a positive goal and a future deadline.
func (e *Engine) Create(owner [20]byte, token string, goal *big.Int, deadline int64, name []byte) (*Campaign, error) {
	if e.state == nil {
		return nil, fmt.Errorf("crowdfund: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if goal == nil || goal.Sign() <= 0 {
		return nil, ErrInvalidGoal
	}
	if deadline <= e.nowFn() {
		return nil, ErrInvalidTiming
	}
	id, err := common.Resolve(owner[:], []byte(normalized), name)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.CampaignGet(id); ok {
		return nil, ErrAlreadyExists
	}
	record := &Campaign{
		ID:        id,
		Owner:     owner,
		Token:     normalized,
		Goal:      new(big.Int).Set(goal),
		Raised:    big.NewInt(0),
		Reclaimed: big.NewInt(0),
		Deadline:  deadline,
		CreatedAt: e.nowFn(),
		Status:    StatusActive,
	}
	if err := e.state.CampaignPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.CampaignEvent{Type: events.TypeCampaignCreated, ID: id, Actor: owner, Token: record.Token, Amount: goal})
	return record.Clone(), nil
}

// Donate moves amount from the donor into campaign custody. Donations close
// at the deadline; a donor may donate repeatedly and the amounts accumulate.
func (e *Engine) Donate(donor [20]byte, id [32]byte, amount *big.Int) error {
	if e.state == nil {
		return fmt.Errorf("crowdfund: state not configured")
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok := e.state.CampaignGet(id)
	if !ok {
		return ErrNotFound
	}
	if record.Status != StatusActive {
		return ErrWrongState
	}
	if !predicate.ReleaseWindowOpen(e.nowFn(), record.Deadline) {
		return ErrDeadlineExpired
	}
	if err := e.state.CampaignCredit(id, donor, record.Token, amount); err != nil {
		return err
	}
	if idx := record.donationIndex(donor); idx >= 0 {
		record.Donations[idx].Amount = new(big.Int).Add(record.Donations[idx].Amount, amount)
	} else {
		record.Donations = append(record.Donations, Donation{Donor: donor, Amount: new(big.Int).Set(amount)})
	}
	record.Raised = new(big.Int).Add(record.Raised, amount)
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.CampaignEvent{Type: events.TypeCampaignDonation, ID: id, Actor: donor, Token: record.Token, Amount: amount, Raised: record.Raised})
	return nil
}

// Withdraw pays the full raise to the owner. Allowed only after the deadline
// and only when the goal was met.
func (e *Engine) Withdraw(caller [20]byte, id [32]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, fmt.Errorf("crowdfund: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	record, ok := e.state.CampaignGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != StatusActive {
		return nil, ErrWrongState
	}
	if caller != record.Owner {
		return nil, ErrUnauthorized
	}
	if !predicate.TimeoutReached(e.nowFn(), record.Deadline) {
		return nil, ErrDeadlineNotReached
	}
	if !record.GoalMet() {
		return nil, ErrGoalNotMet
	}
	payout := new(big.Int).Set(record.Raised)
	if err := e.state.CampaignDebit(id, record.Owner, record.Token, payout); err != nil {
		return nil, err
	}
	record.Status = StatusWithdrawn
	if err := e.state.CampaignPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.CampaignEvent{Type: events.TypeCampaignWithdrawn, ID: id, Actor: record.Owner, Token: record.Token, Amount: payout, Raised: record.Raised})
	return payout, nil
}

// Reclaim refunds the caller's cumulative donation. Allowed only after the
// deadline of a raise that missed its goal, once per donor.
func (e *Engine) Reclaim(donor [20]byte, id [32]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, fmt.Errorf("crowdfund: state not configured")
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	record, ok := e.state.CampaignGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != StatusActive {
		return nil, ErrWrongState
	}
	if !predicate.TimeoutReached(e.nowFn(), record.Deadline) {
		return nil, ErrDeadlineNotReached
	}
	if record.GoalMet() {
		return nil, ErrGoalMet
	}
	idx := record.donationIndex(donor)
	if idx < 0 || record.Donations[idx].Amount.Sign() <= 0 {
		return nil, ErrNothingToReclaim
	}
	refund := new(big.Int).Set(record.Donations[idx].Amount)
	if err := e.state.CampaignDebit(id, donor, record.Token, refund); err != nil {
		return nil, err
	}
	record.Donations[idx].Amount = big.NewInt(0)
	record.Reclaimed = new(big.Int).Add(record.Reclaimed, refund)
	if err := e.state.CampaignPut(record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.CampaignEvent{Type: events.TypeCampaignReclaimed, ID: id, Actor: donor, Token: record.Token, Amount: refund})
	return refund, nil
}
