package htlc

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"escrowkit/native/predicate"
)

type mockState struct {
	contracts map[[32]byte]*Contract
	balances  map[[20]byte]*big.Int
	custody   map[[32]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		contracts: make(map[[32]byte]*Contract),
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

func (m *mockState) HTLCPut(c *Contract) error {
	if c == nil {
		return fmt.Errorf("nil contract")
	}
	m.contracts[c.ID] = c.Clone()
	return nil
}

func (m *mockState) HTLCGet(id [32]byte) (*Contract, bool) {
	c, ok := m.contracts[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (m *mockState) HTLCCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
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

func (m *mockState) HTLCDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
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

const testDeadline = int64(2_000)

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_000 })
	return engine
}

func TestCreateLocksFundsAtomically(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	payer := newTestAddress(0x01)
	payee := newTestAddress(0x02)
	state.setBalance(payer, 500)
	lock := predicate.HashCommitment([]byte("secret"))

	contract, err := engine.Create(payer, payee, "NHB", big.NewInt(500), lock, testDeadline)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := state.balance(payer).String(); got != "0" {
		t.Fatalf("payer balance after create: %s", got)
	}
	if held := state.custody[contract.ID]; held.String() != "500" {
		t.Fatalf("custody after create: %s", held)
	}
	stored, _ := state.HTLCGet(contract.ID)
	if stored.Status != StatusLocked {
		t.Fatalf("status after create: %v", stored.Status)
	}
}

func TestCreateRejectsUnderfundedPayer(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	payer := newTestAddress(0x01)
	payee := newTestAddress(0x02)
	state.setBalance(payer, 10)
	lock := predicate.HashCommitment([]byte("secret"))

	if _, err := engine.Create(payer, payee, "NHB", big.NewInt(500), lock, testDeadline); err == nil {
		t.Fatalf("expected funding failure")
	}
	if got := state.balance(payer).String(); got != "10" {
		t.Fatalf("payer balance must be untouched: %s", got)
	}
}

func TestClaimWithPreimage(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	payer := newTestAddress(0x11)
	payee := newTestAddress(0x12)
	state.setBalance(payer, 300)
	secret := []byte("the-preimage")
	lock := predicate.HashCommitment(secret)

	contract, err := engine.Create(payer, payee, "NHB", big.NewInt(300), lock, testDeadline)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.Claim(contract.ID, payer, secret); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("claim by payer: %v", err)
	}
	if err := engine.Claim(contract.ID, payee, []byte("wrong")); !errors.Is(err, ErrInvalidPreimage) {
		t.Fatalf("wrong preimage: %v", err)
	}
	if err := engine.Claim(contract.ID, payee, secret); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := state.balance(payee).String(); got != "300" {
		t.Fatalf("payee balance after claim: %s", got)
	}
	stored, _ := state.HTLCGet(contract.ID)
	if stored.Status != StatusClaimed {
		t.Fatalf("status after claim: %v", stored.Status)
	}
	if err := engine.Claim(contract.ID, payee, secret); !errors.Is(err, ErrWrongState) {
		t.Fatalf("double claim: %v", err)
	}
}

func TestClaimWindowAndRefundAreExclusive(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	payer := newTestAddress(0x21)
	payee := newTestAddress(0x22)
	state.setBalance(payer, 100)
	secret := []byte("s")
	lock := predicate.HashCommitment(secret)

	contract, err := engine.Create(payer, payee, "NHB", big.NewInt(100), lock, testDeadline)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// At the deadline instant only the claim path is open.
	engine.SetNowFunc(func() int64 { return testDeadline })
	if err := engine.Refund(contract.ID); !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("refund at deadline: %v", err)
	}

	// Past the deadline only the refund path is open, and the preimage no
	// longer helps the payee.
	engine.SetNowFunc(func() int64 { return testDeadline + 1 })
	if err := engine.Claim(contract.ID, payee, secret); !errors.Is(err, ErrDeadlineExpired) {
		t.Fatalf("claim after deadline: %v", err)
	}
	if err := engine.Refund(contract.ID); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got := state.balance(payer).String(); got != "100" {
		t.Fatalf("payer balance after refund: %s", got)
	}
	stored, _ := state.HTLCGet(contract.ID)
	if stored.Status != StatusRefunded {
		t.Fatalf("status after refund: %v", stored.Status)
	}
}

func TestCreateValidations(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	payer := newTestAddress(0x31)
	payee := newTestAddress(0x32)
	lock := predicate.HashCommitment([]byte("x"))

	if _, err := engine.Create(payer, payee, "NHB", big.NewInt(0), lock, testDeadline); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := engine.Create(payer, payer, "NHB", big.NewInt(10), lock, testDeadline); !errors.Is(err, ErrDuplicateParty) {
		t.Fatalf("payer == payee: %v", err)
	}
	if _, err := engine.Create(payer, payee, "NHB", big.NewInt(10), lock, 999); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("past deadline: %v", err)
	}
}
