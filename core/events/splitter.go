package events

import (
	"math/big"
	"strconv"

	"escrowkit/core/types"
)

const (
	TypeSplitterCreated   = "splitter.created"
	TypeSplitterFunded    = "splitter.funded"
	TypeSplitterReleased  = "splitter.released"
	TypeSplitterCompleted = "splitter.completed"
)

type SplitterCreated struct {
	ID          [32]byte
	Funder      [20]byte
	Token       string
	PayeeCount  int
	TotalShares uint64
}

func (SplitterCreated) EventType() string { return TypeSplitterCreated }

func (e SplitterCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitterCreated,
		Attributes: map[string]string{
			"id":          hexID(e.ID),
			"funder":      hexAddr(e.Funder),
			"token":       e.Token,
			"payees":      strconv.Itoa(e.PayeeCount),
			"totalShares": strconv.FormatUint(e.TotalShares, 10),
		},
	}
}

type SplitterFunded struct {
	ID     [32]byte
	From   [20]byte
	Amount *big.Int
}

func (SplitterFunded) EventType() string { return TypeSplitterFunded }

func (e SplitterFunded) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitterFunded,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"from":   hexAddr(e.From),
			"amount": formatAmount(e.Amount),
		},
	}
}

type SplitterReleased struct {
	ID     [32]byte
	Payee  [20]byte
	Amount *big.Int
}

func (SplitterReleased) EventType() string { return TypeSplitterReleased }

func (e SplitterReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitterReleased,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"payee":  hexAddr(e.Payee),
			"amount": formatAmount(e.Amount),
		},
	}
}

type SplitterCompleted struct {
	ID          [32]byte
	Distributed *big.Int
}

func (SplitterCompleted) EventType() string { return TypeSplitterCompleted }

func (e SplitterCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitterCompleted,
		Attributes: map[string]string{
			"id":          hexID(e.ID),
			"distributed": formatAmount(e.Distributed),
		},
	}
}
