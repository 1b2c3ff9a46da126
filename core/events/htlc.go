package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeHTLCCreated  = "htlc.created"
	TypeHTLCClaimed  = "htlc.claimed"
	TypeHTLCRefunded = "htlc.refunded"
)

type HTLCCreated struct {
	ID       [32]byte
	Payer    [20]byte
	Payee    [20]byte
	Token    string
	Amount   *big.Int
	HashLock [32]byte
	Deadline int64
}

func (HTLCCreated) EventType() string { return TypeHTLCCreated }

func (e HTLCCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeHTLCCreated,
		Attributes: map[string]string{
			"id":       hexID(e.ID),
			"payer":    hexAddr(e.Payer),
			"payee":    hexAddr(e.Payee),
			"token":    e.Token,
			"amount":   formatAmount(e.Amount),
			"hashLock": hexID(e.HashLock),
			"deadline": intToString(e.Deadline),
		},
	}
}

type HTLCClaimed struct {
	ID     [32]byte
	Payee  [20]byte
	Token  string
	Amount *big.Int
}

func (HTLCClaimed) EventType() string { return TypeHTLCClaimed }

func (e HTLCClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeHTLCClaimed,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"payee":  hexAddr(e.Payee),
			"token":  e.Token,
			"amount": formatAmount(e.Amount),
		},
	}
}

type HTLCRefunded struct {
	ID     [32]byte
	Payer  [20]byte
	Token  string
	Amount *big.Int
}

func (HTLCRefunded) EventType() string { return TypeHTLCRefunded }

func (e HTLCRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeHTLCRefunded,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"payer":  hexAddr(e.Payer),
			"token":  e.Token,
			"amount": formatAmount(e.Amount),
		},
	}
}
