package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeVestingCreated   = "vesting.created"
	TypeVestingReleased  = "vesting.released"
	TypeVestingCompleted = "vesting.completed"
)

type VestingCreated struct {
	ID          [32]byte
	Funder      [20]byte
	Beneficiary [20]byte
	Token       string
	Total       *big.Int
	Start       int64
	Duration    int64
}

func (VestingCreated) EventType() string { return TypeVestingCreated }

func (e VestingCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingCreated,
		Attributes: map[string]string{
			"id":          hexID(e.ID),
			"funder":      hexAddr(e.Funder),
			"beneficiary": hexAddr(e.Beneficiary),
			"token":       e.Token,
			"total":       formatAmount(e.Total),
			"start":       intToString(e.Start),
			"duration":    intToString(e.Duration),
		},
	}
}

type VestingReleased struct {
	ID            [32]byte
	Beneficiary   [20]byte
	Amount        *big.Int
	TotalReleased *big.Int
}

func (VestingReleased) EventType() string { return TypeVestingReleased }

func (e VestingReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingReleased,
		Attributes: map[string]string{
			"id":            hexID(e.ID),
			"beneficiary":   hexAddr(e.Beneficiary),
			"amount":        formatAmount(e.Amount),
			"totalReleased": formatAmount(e.TotalReleased),
		},
	}
}

type VestingCompleted struct {
	ID          [32]byte
	Beneficiary [20]byte
	Total       *big.Int
}

func (VestingCompleted) EventType() string { return TypeVestingCompleted }

func (e VestingCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingCompleted,
		Attributes: map[string]string{
			"id":          hexID(e.ID),
			"beneficiary": hexAddr(e.Beneficiary),
			"total":       formatAmount(e.Total),
		},
	}
}
