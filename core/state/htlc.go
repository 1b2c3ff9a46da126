package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/htlc"
)

const htlcModule = "htlc"

type storedHTLC struct {
	ID        [32]byte
	Payer     [20]byte
	Payee     [20]byte
	Token     string
	Amount    *big.Int
	HashLock  [32]byte
	Deadline  *big.Int
	CreatedAt *big.Int
	Status    uint8
}

func newStoredHTLC(c *htlc.Contract) *storedHTLC {
	stored := &storedHTLC{
		ID:        c.ID,
		Payer:     c.Payer,
		Payee:     c.Payee,
		Token:     c.Token,
		Amount:    big.NewInt(0),
		HashLock:  c.HashLock,
		Deadline:  big.NewInt(c.Deadline),
		CreatedAt: big.NewInt(c.CreatedAt),
		Status:    uint8(c.Status),
	}
	if c.Amount != nil {
		stored.Amount = new(big.Int).Set(c.Amount)
	}
	return stored
}

func (s *storedHTLC) toContract() (*htlc.Contract, error) {
	if s == nil {
		return nil, fmt.Errorf("htlc: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &htlc.Contract{
		ID:       s.ID,
		Payer:    s.Payer,
		Payee:    s.Payee,
		Token:    normalized,
		Amount:   big.NewInt(0),
		HashLock: s.HashLock,
		Status:   htlc.Status(s.Status),
	}
	if s.Amount != nil {
		out.Amount = new(big.Int).Set(s.Amount)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("htlc: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) HTLCPut(c *htlc.Contract) error {
	if c == nil {
		return fmt.Errorf("htlc: nil record")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("htlc: invalid status %d", c.Status)
	}
	return m.writeRLP(storageKey(htlcPrefix, c.ID[:]), newStoredHTLC(c))
}

func (m *Manager) HTLCGet(id [32]byte) (*htlc.Contract, bool) {
	stored := new(storedHTLC)
	ok, err := m.loadRLP(storageKey(htlcPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toContract()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) HTLCCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(htlcModule, id, from, token, amt)
}

func (m *Manager) HTLCDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(htlcModule, id, to, token, amt)
}
