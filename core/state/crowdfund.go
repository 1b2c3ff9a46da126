package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/crowdfund"
)

const campaignModule = "crowdfund"

type storedDonation struct {
	Donor  [20]byte
	Amount *big.Int
}

type storedCampaign struct {
	ID        [32]byte
	Owner     [20]byte
	Token     string
	Goal      *big.Int
	Raised    *big.Int
	Reclaimed *big.Int
	Donations []storedDonation
	Deadline  *big.Int
	CreatedAt *big.Int
	Status    uint8
}

func newStoredCampaign(c *crowdfund.Campaign) *storedCampaign {
	stored := &storedCampaign{
		ID:        c.ID,
		Owner:     c.Owner,
		Token:     c.Token,
		Goal:      big.NewInt(0),
		Raised:    big.NewInt(0),
		Reclaimed: big.NewInt(0),
		Deadline:  big.NewInt(c.Deadline),
		CreatedAt: big.NewInt(c.CreatedAt),
		Status:    uint8(c.Status),
	}
	if c.Goal != nil {
		stored.Goal = new(big.Int).Set(c.Goal)
	}
	if c.Raised != nil {
		stored.Raised = new(big.Int).Set(c.Raised)
	}
	if c.Reclaimed != nil {
		stored.Reclaimed = new(big.Int).Set(c.Reclaimed)
	}
	stored.Donations = make([]storedDonation, len(c.Donations))
	for i, d := range c.Donations {
		stored.Donations[i] = storedDonation{Donor: d.Donor, Amount: big.NewInt(0)}
		if d.Amount != nil {
			stored.Donations[i].Amount = new(big.Int).Set(d.Amount)
		}
	}
	return stored
}

func (s *storedCampaign) toCampaign() (*crowdfund.Campaign, error) {
	if s == nil {
		return nil, fmt.Errorf("crowdfund: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &crowdfund.Campaign{
		ID:        s.ID,
		Owner:     s.Owner,
		Token:     normalized,
		Goal:      big.NewInt(0),
		Raised:    big.NewInt(0),
		Reclaimed: big.NewInt(0),
		Status:    crowdfund.Status(s.Status),
	}
	if s.Goal != nil {
		out.Goal = new(big.Int).Set(s.Goal)
	}
	if s.Raised != nil {
		out.Raised = new(big.Int).Set(s.Raised)
	}
	if s.Reclaimed != nil {
		out.Reclaimed = new(big.Int).Set(s.Reclaimed)
	}
	if s.Deadline != nil {
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	out.Donations = make([]crowdfund.Donation, len(s.Donations))
	for i, d := range s.Donations {
		out.Donations[i] = crowdfund.Donation{Donor: d.Donor, Amount: big.NewInt(0)}
		if d.Amount != nil {
			out.Donations[i].Amount = new(big.Int).Set(d.Amount)
		}
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("crowdfund: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) CampaignPut(c *crowdfund.Campaign) error {
	if c == nil {
		return fmt.Errorf("crowdfund: nil record")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("crowdfund: invalid status %d", c.Status)
	}
	return m.writeRLP(storageKey(campaignPrefix, c.ID[:]), newStoredCampaign(c))
}

func (m *Manager) CampaignGet(id [32]byte) (*crowdfund.Campaign, bool) {
	stored := new(storedCampaign)
	ok, err := m.loadRLP(storageKey(campaignPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toCampaign()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) CampaignCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(campaignModule, id, from, token, amt)
}

func (m *Manager) CampaignDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(campaignModule, id, to, token, amt)
}
