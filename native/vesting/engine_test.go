package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	schedules map[[32]byte]*Schedule
	balances  map[[20]byte]*big.Int
	custody   map[[32]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		schedules: make(map[[32]byte]*Schedule),
		balances:  make(map[[20]byte]*big.Int),
		custody:   make(map[[32]byte]*big.Int),
	}
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	m.balances[addr] = big.NewInt(amount)
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if bal, ok := m.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func (m *mockState) VestingPut(s *Schedule) error {
	if s == nil {
		return fmt.Errorf("nil schedule")
	}
	m.schedules[s.ID] = s.Clone()
	return nil
}

func (m *mockState) VestingGet(id [32]byte) (*Schedule, bool) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (m *mockState) VestingCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	bal := m.balance(from)
	if bal.Cmp(amt) < 0 {
		return fmt.Errorf("insufficient balance")
	}
	m.balances[from] = bal.Sub(bal, amt)
	held, ok := m.custody[id]
	if !ok {
		held = big.NewInt(0)
	}
	m.custody[id] = new(big.Int).Add(held, amt)
	return nil
}

func (m *mockState) VestingDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	held, ok := m.custody[id]
	if !ok || held.Cmp(amt) < 0 {
		return fmt.Errorf("insufficient custody")
	}
	m.custody[id] = new(big.Int).Sub(held, amt)
	m.balances[to] = new(big.Int).Add(m.balance(to), amt)
	return nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

const (
	vestStart    = int64(1_000)
	vestDuration = int64(1_000)
)

func newTestEngine(state *mockState, now *int64) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return *now })
	return engine
}

func setupSchedule(t *testing.T, state *mockState, engine *Engine, total int64) *Schedule {
	t.Helper()
	funder := newTestAddress(0x01)
	beneficiary := newTestAddress(0x02)
	state.setBalance(funder, total)
	schedule, err := engine.Create(funder, beneficiary, "NHB", big.NewInt(total), vestStart, vestDuration)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return schedule
}

func TestCreateFundsFullTotal(t *testing.T) {
	state := newMockState()
	now := int64(900)
	engine := newTestEngine(state, &now)
	schedule := setupSchedule(t, state, engine, 1_000)

	if got := state.balance(schedule.Funder).String(); got != "0" {
		t.Fatalf("funder balance after create: %s", got)
	}
	if held := state.custody[schedule.ID]; held.String() != "1000" {
		t.Fatalf("custody after create: %s", held)
	}
	if schedule.Status != StatusActive {
		t.Fatalf("status: %v", schedule.Status)
	}
}

func TestCreateValidations(t *testing.T) {
	state := newMockState()
	now := int64(900)
	engine := newTestEngine(state, &now)
	funder := newTestAddress(0x01)
	beneficiary := newTestAddress(0x02)
	state.setBalance(funder, 1_000)

	if _, err := engine.Create(funder, beneficiary, "NHB", big.NewInt(0), vestStart, vestDuration); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero total: %v", err)
	}
	if _, err := engine.Create(funder, beneficiary, "NHB", big.NewInt(100), vestStart, 0); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("zero duration: %v", err)
	}
	if _, err := engine.Create(funder, funder, "NHB", big.NewInt(100), vestStart, vestDuration); !errors.Is(err, ErrDuplicateParty) {
		t.Fatalf("funder == beneficiary: %v", err)
	}
}

func TestLinearReleaseSchedule(t *testing.T) {
	state := newMockState()
	now := int64(900)
	engine := newTestEngine(state, &now)
	schedule := setupSchedule(t, state, engine, 1_000)
	beneficiary := schedule.Beneficiary

	// Before the start nothing is releasable.
	if _, err := engine.Release(schedule.ID, beneficiary); !errors.Is(err, ErrNothingToRelease) {
		t.Fatalf("release before start: %v", err)
	}

	// Halfway through, half the total has vested.
	now = vestStart + 500
	amount, err := engine.Release(schedule.ID, beneficiary)
	if err != nil {
		t.Fatalf("release at midpoint: %v", err)
	}
	if amount.String() != "500" {
		t.Fatalf("midpoint release: %s", amount)
	}
	if got := state.balance(beneficiary).String(); got != "500" {
		t.Fatalf("beneficiary balance: %s", got)
	}

	// Releasing again without time passing is a no-op error, never a double
	// payment.
	if _, err := engine.Release(schedule.ID, beneficiary); !errors.Is(err, ErrNothingToRelease) {
		t.Fatalf("repeat release: %v", err)
	}
	if got := state.balance(beneficiary).String(); got != "500" {
		t.Fatalf("balance changed on repeat release: %s", got)
	}

	// At the end of the schedule the remainder drains and the record
	// completes.
	now = vestStart + vestDuration
	amount, err = engine.Release(schedule.ID, beneficiary)
	if err != nil {
		t.Fatalf("final release: %v", err)
	}
	if amount.String() != "500" {
		t.Fatalf("final release: %s", amount)
	}
	if got := state.balance(beneficiary).String(); got != "1000" {
		t.Fatalf("beneficiary final balance: %s", got)
	}
	stored, _ := state.VestingGet(schedule.ID)
	if stored.Status != StatusCompleted {
		t.Fatalf("status after full drain: %v", stored.Status)
	}
	if _, err := engine.Release(schedule.ID, beneficiary); !errors.Is(err, ErrWrongState) {
		t.Fatalf("release after completion: %v", err)
	}
}

func TestReleasableIsMonotonic(t *testing.T) {
	state := newMockState()
	now := vestStart
	engine := newTestEngine(state, &now)
	schedule := setupSchedule(t, state, engine, 997)

	prev := big.NewInt(0)
	for offset := int64(0); offset <= vestDuration+100; offset += 97 {
		now = vestStart + offset
		releasable, err := engine.Releasable(schedule.ID)
		if err != nil {
			t.Fatalf("releasable at +%d: %v", offset, err)
		}
		if releasable.Cmp(prev) < 0 {
			t.Fatalf("releasable decreased at +%d: %s < %s", offset, releasable, prev)
		}
		prev = releasable
	}
	if prev.String() != "997" {
		t.Fatalf("full vesting: %s", prev)
	}
}

func TestReleaseRequiresBeneficiary(t *testing.T) {
	state := newMockState()
	now := vestStart + 500
	engine := newTestEngine(state, &now)
	schedule := setupSchedule(t, state, engine, 1_000)

	if _, err := engine.Release(schedule.ID, schedule.Funder); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("release by funder: %v", err)
	}
}
