package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/escrow"
)

const escrowModule = "escrow"

// storedEscrow is the RLP shape of an escrow record. Signed timestamps ride
// as big.Int because RLP only encodes unsigned integers.
type storedEscrow struct {
	ID        [32]byte
	Payer     [20]byte
	Payee     [20]byte
	Mediator  [20]byte
	Token     string
	Amount    *big.Int
	Released  *big.Int
	FeeBps    uint32
	Deadline  *big.Int
	CreatedAt *big.Int
	Status    uint8
}

func newStoredEscrow(e *escrow.Escrow) *storedEscrow {
	stored := &storedEscrow{
		ID:        e.ID,
		Payer:     e.Payer,
		Payee:     e.Payee,
		Mediator:  e.Mediator,
		Token:     e.Token,
		Amount:    big.NewInt(0),
		Released:  big.NewInt(0),
		FeeBps:    e.FeeBps,
		Deadline:  big.NewInt(e.Deadline),
		CreatedAt: big.NewInt(e.CreatedAt),
		Status:    uint8(e.Status),
	}
	if e.Amount != nil {
		stored.Amount = new(big.Int).Set(e.Amount)
	}
	if e.Released != nil {
		stored.Released = new(big.Int).Set(e.Released)
	}
	return stored
}

func (s *storedEscrow) toEscrow() (*escrow.Escrow, error) {
	if s == nil {
		return nil, fmt.Errorf("escrow: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &escrow.Escrow{
		ID:       s.ID,
		Payer:    s.Payer,
		Payee:    s.Payee,
		Mediator: s.Mediator,
		Token:    normalized,
		Amount:   big.NewInt(0),
		Released: big.NewInt(0),
		FeeBps:   s.FeeBps,
		Status:   escrow.Status(s.Status),
	}
	if s.Amount != nil {
		out.Amount = new(big.Int).Set(s.Amount)
	}
	if s.Released != nil {
		out.Released = new(big.Int).Set(s.Released)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("escrow: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) EscrowPut(e *escrow.Escrow) error {
	if e == nil {
		return fmt.Errorf("escrow: nil record")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("escrow: invalid status %d", e.Status)
	}
	return m.writeRLP(storageKey(escrowPrefix, e.ID[:]), newStoredEscrow(e))
}

func (m *Manager) EscrowGet(id [32]byte) (*escrow.Escrow, bool) {
	stored := new(storedEscrow)
	ok, err := m.loadRLP(storageKey(escrowPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toEscrow()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) EscrowCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(escrowModule, id, from, token, amt)
}

func (m *Manager) EscrowDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(escrowModule, id, to, token, amt)
}

func (m *Manager) EscrowBalance(id [32]byte, token string) (*big.Int, error) {
	return m.CustodyBalance(escrowModule, id, token)
}
