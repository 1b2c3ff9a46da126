package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeCampaignCreated   = "crowdfund.created"
	TypeCampaignDonation  = "crowdfund.donated"
	TypeCampaignWithdrawn = "crowdfund.withdrawn"
	TypeCampaignReclaimed = "crowdfund.reclaimed"
)

// CampaignEvent covers the crowdfunding lifecycle with a shared attribute
// shape; Actor is the donor, owner or reclaiming donor depending on the type.
type CampaignEvent struct {
	Type   string
	ID     [32]byte
	Actor  [20]byte
	Token  string
	Amount *big.Int
	Raised *big.Int
}

func (e CampaignEvent) EventType() string { return e.Type }

func (e CampaignEvent) Event() *types.Event {
	attrs := map[string]string{
		"id":    hexID(e.ID),
		"actor": hexAddr(e.Actor),
		"token": e.Token,
	}
	if e.Amount != nil {
		attrs["amount"] = formatAmount(e.Amount)
	}
	if e.Raised != nil {
		attrs["raised"] = formatAmount(e.Raised)
	}
	return &types.Event{Type: e.Type, Attributes: attrs}
}
