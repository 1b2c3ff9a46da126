package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/bet"
	"escrowkit/native/common"
)

const (
	betModule      = "bet"
	priceBetModule = "pricebet"
)

type storedBet struct {
	ID           [32]byte
	Initiator    [20]byte
	Counterparty [20]byte
	Oracle       [20]byte
	Winner       [20]byte
	Token        string
	Wager        *big.Int
	Deadline     *big.Int
	CreatedAt    *big.Int
	Status       uint8
}

func newStoredBet(b *bet.Bet) *storedBet {
	stored := &storedBet{
		ID:           b.ID,
		Initiator:    b.Initiator,
		Counterparty: b.Counterparty,
		Oracle:       b.Oracle,
		Winner:       b.Winner,
		Token:        b.Token,
		Wager:        big.NewInt(0),
		Deadline:     big.NewInt(b.Deadline),
		CreatedAt:    big.NewInt(b.CreatedAt),
		Status:       uint8(b.Status),
	}
	if b.Wager != nil {
		stored.Wager = new(big.Int).Set(b.Wager)
	}
	return stored
}

func (s *storedBet) toBet() (*bet.Bet, error) {
	if s == nil {
		return nil, fmt.Errorf("bet: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &bet.Bet{
		ID:           s.ID,
		Initiator:    s.Initiator,
		Counterparty: s.Counterparty,
		Oracle:       s.Oracle,
		Winner:       s.Winner,
		Token:        normalized,
		Wager:        big.NewInt(0),
		Status:       bet.Status(s.Status),
	}
	if s.Wager != nil {
		out.Wager = new(big.Int).Set(s.Wager)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("bet: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) BetPut(b *bet.Bet) error {
	if b == nil {
		return fmt.Errorf("bet: nil record")
	}
	if !b.Status.Valid() {
		return fmt.Errorf("bet: invalid status %d", b.Status)
	}
	return m.writeRLP(storageKey(betPrefix, b.ID[:]), newStoredBet(b))
}

func (m *Manager) BetGet(id [32]byte) (*bet.Bet, bool) {
	stored := new(storedBet)
	ok, err := m.loadRLP(storageKey(betPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toBet()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) BetCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(betModule, id, from, token, amt)
}

func (m *Manager) BetDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(betModule, id, to, token, amt)
}

type storedPriceBet struct {
	ID          [32]byte
	Owner       [20]byte
	Player      [20]byte
	Token       string
	Wager       *big.Int
	Base        string
	Quote       string
	TargetRate  *big.Int
	Deadline    *big.Int
	ClaimWindow *big.Int
	CreatedAt   *big.Int
	Status      uint8
}

func newStoredPriceBet(b *bet.PriceBet) *storedPriceBet {
	stored := &storedPriceBet{
		ID:          b.ID,
		Owner:       b.Owner,
		Player:      b.Player,
		Token:       b.Token,
		Wager:       big.NewInt(0),
		Base:        b.Base,
		Quote:       b.Quote,
		TargetRate:  big.NewInt(0),
		Deadline:    big.NewInt(b.Deadline),
		ClaimWindow: big.NewInt(b.ClaimWindow),
		CreatedAt:   big.NewInt(b.CreatedAt),
		Status:      uint8(b.Status),
	}
	if b.Wager != nil {
		stored.Wager = new(big.Int).Set(b.Wager)
	}
	if b.TargetRate != nil {
		stored.TargetRate = new(big.Int).Set(b.TargetRate)
	}
	return stored
}

func (s *storedPriceBet) toPriceBet() (*bet.PriceBet, error) {
	if s == nil {
		return nil, fmt.Errorf("bet: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &bet.PriceBet{
		ID:         s.ID,
		Owner:      s.Owner,
		Player:     s.Player,
		Token:      normalized,
		Wager:      big.NewInt(0),
		Base:       s.Base,
		Quote:      s.Quote,
		TargetRate: big.NewInt(0),
		Status:     bet.Status(s.Status),
	}
	if s.Wager != nil {
		out.Wager = new(big.Int).Set(s.Wager)
	}
	if s.TargetRate != nil {
		out.TargetRate = new(big.Int).Set(s.TargetRate)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.ClaimWindow != nil {
		out.ClaimWindow = s.ClaimWindow.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("bet: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) PriceBetPut(b *bet.PriceBet) error {
	if b == nil {
		return fmt.Errorf("bet: nil record")
	}
	if !b.Status.Valid() {
		return fmt.Errorf("bet: invalid status %d", b.Status)
	}
	return m.writeRLP(storageKey(priceBetPrefix, b.ID[:]), newStoredPriceBet(b))
}

func (m *Manager) PriceBetGet(id [32]byte) (*bet.PriceBet, bool) {
	stored := new(storedPriceBet)
	ok, err := m.loadRLP(storageKey(priceBetPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toPriceBet()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) PriceBetCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(priceBetModule, id, from, token, amt)
}

func (m *Manager) PriceBetDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(priceBetModule, id, to, token, amt)
}
