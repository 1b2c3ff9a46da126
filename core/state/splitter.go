package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/splitter"
)

const splitterModule = "splitter"

type storedPayee struct {
	Address  [20]byte
	Share    uint64
	Released *big.Int
}

type storedSplitter struct {
	ID            [32]byte
	Funder        [20]byte
	Token         string
	Payees        []storedPayee
	TotalShares   uint64
	TotalReceived *big.Int
	TotalReleased *big.Int
	CreatedAt     *big.Int
	Status        uint8
}

func newStoredSplitter(s *splitter.Splitter) *storedSplitter {
	stored := &storedSplitter{
		ID:            s.ID,
		Funder:        s.Funder,
		Token:         s.Token,
		TotalShares:   s.TotalShares,
		TotalReceived: big.NewInt(0),
		TotalReleased: big.NewInt(0),
		CreatedAt:     big.NewInt(s.CreatedAt),
		Status:        uint8(s.Status),
	}
	if s.TotalReceived != nil {
		stored.TotalReceived = new(big.Int).Set(s.TotalReceived)
	}
	if s.TotalReleased != nil {
		stored.TotalReleased = new(big.Int).Set(s.TotalReleased)
	}
	stored.Payees = make([]storedPayee, len(s.Payees))
	for i, p := range s.Payees {
		stored.Payees[i] = storedPayee{Address: p.Address, Share: p.Share, Released: big.NewInt(0)}
		if p.Released != nil {
			stored.Payees[i].Released = new(big.Int).Set(p.Released)
		}
	}
	return stored
}

func (s *storedSplitter) toSplitter() (*splitter.Splitter, error) {
	if s == nil {
		return nil, fmt.Errorf("splitter: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &splitter.Splitter{
		ID:            s.ID,
		Funder:        s.Funder,
		Token:         normalized,
		TotalShares:   s.TotalShares,
		TotalReceived: big.NewInt(0),
		TotalReleased: big.NewInt(0),
		Status:        splitter.Status(s.Status),
	}
	if s.TotalReceived != nil {
		out.TotalReceived = new(big.Int).Set(s.TotalReceived)
	}
	if s.TotalReleased != nil {
		out.TotalReleased = new(big.Int).Set(s.TotalReleased)
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	out.Payees = make([]splitter.Payee, len(s.Payees))
	for i, p := range s.Payees {
		out.Payees[i] = splitter.Payee{Address: p.Address, Share: p.Share, Released: big.NewInt(0)}
		if p.Released != nil {
			out.Payees[i].Released = new(big.Int).Set(p.Released)
		}
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("splitter: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) SplitterPut(s *splitter.Splitter) error {
	if s == nil {
		return fmt.Errorf("splitter: nil record")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("splitter: invalid status %d", s.Status)
	}
	return m.writeRLP(storageKey(splitterPrefix, s.ID[:]), newStoredSplitter(s))
}

func (m *Manager) SplitterGet(id [32]byte) (*splitter.Splitter, bool) {
	stored := new(storedSplitter)
	ok, err := m.loadRLP(storageKey(splitterPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toSplitter()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) SplitterCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(splitterModule, id, from, token, amt)
}

func (m *Manager) SplitterDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(splitterModule, id, to, token, amt)
}

func (m *Manager) SplitterBalance(id [32]byte, token string) (*big.Int, error) {
	return m.CustodyBalance(splitterModule, id, token)
}
