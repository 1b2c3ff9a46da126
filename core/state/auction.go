package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/auction"
	"escrowkit/native/common"
)

const auctionModule = "auction"

type storedAuction struct {
	ID            [32]byte
	Seller        [20]byte
	Token         string
	Reserve       *big.Int
	HighestBid    *big.Int
	HighestBidder [20]byte
	Deadline      *big.Int
	CreatedAt     *big.Int
	Status        uint8
}

func newStoredAuction(a *auction.Auction) *storedAuction {
	stored := &storedAuction{
		ID:            a.ID,
		Seller:        a.Seller,
		Token:         a.Token,
		Reserve:       big.NewInt(0),
		HighestBid:    big.NewInt(0),
		HighestBidder: a.HighestBidder,
		Deadline:      big.NewInt(a.Deadline),
		CreatedAt:     big.NewInt(a.CreatedAt),
		Status:        uint8(a.Status),
	}
	if a.Reserve != nil {
		stored.Reserve = new(big.Int).Set(a.Reserve)
	}
	if a.HighestBid != nil {
		stored.HighestBid = new(big.Int).Set(a.HighestBid)
	}
	return stored
}

func (s *storedAuction) toAuction() (*auction.Auction, error) {
	if s == nil {
		return nil, fmt.Errorf("auction: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &auction.Auction{
		ID:            s.ID,
		Seller:        s.Seller,
		Token:         normalized,
		Reserve:       big.NewInt(0),
		HighestBid:    big.NewInt(0),
		HighestBidder: s.HighestBidder,
		Status:        auction.Status(s.Status),
	}
	if s.Reserve != nil {
		out.Reserve = new(big.Int).Set(s.Reserve)
	}
	if s.HighestBid != nil {
		out.HighestBid = new(big.Int).Set(s.HighestBid)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("auction: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) AuctionPut(a *auction.Auction) error {
	if a == nil {
		return fmt.Errorf("auction: nil record")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("auction: invalid status %d", a.Status)
	}
	return m.writeRLP(storageKey(auctionPrefix, a.ID[:]), newStoredAuction(a))
}

func (m *Manager) AuctionGet(id [32]byte) (*auction.Auction, bool) {
	stored := new(storedAuction)
	ok, err := m.loadRLP(storageKey(auctionPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toAuction()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) AuctionCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(auctionModule, id, from, token, amt)
}

func (m *Manager) AuctionDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(auctionModule, id, to, token, amt)
}
