package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeEscrowCreated  = "escrow.created"
	TypeEscrowFunded   = "escrow.funded"
	TypeEscrowReleased = "escrow.released"
	TypeEscrowRefunded = "escrow.refunded"
	TypeEscrowExpired  = "escrow.expired"
	TypeEscrowDisputed = "escrow.disputed"
	TypeEscrowResolved = "escrow.resolved"
)

// EscrowCreated is emitted when a new escrow definition is persisted.
type EscrowCreated struct {
	ID        [32]byte
	Payer     [20]byte
	Payee     [20]byte
	Token     string
	Amount    *big.Int
	Deadline  int64
	CreatedAt int64
}

func (EscrowCreated) EventType() string { return TypeEscrowCreated }

func (e EscrowCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowCreated,
		Attributes: map[string]string{
			"id":        hexID(e.ID),
			"payer":     hexAddr(e.Payer),
			"payee":     hexAddr(e.Payee),
			"token":     e.Token,
			"amount":    formatAmount(e.Amount),
			"deadline":  intToString(e.Deadline),
			"createdAt": intToString(e.CreatedAt),
		},
	}
}

// EscrowTransition covers the funded, released, refunded, expired, disputed and
// resolved lifecycle notifications, which share one attribute shape.
type EscrowTransition struct {
	Type   string
	ID     [32]byte
	Caller [20]byte
	Token  string
	Amount *big.Int
}

func (e EscrowTransition) EventType() string { return e.Type }

func (e EscrowTransition) Event() *types.Event {
	return &types.Event{
		Type: e.Type,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"caller": hexAddr(e.Caller),
			"token":  e.Token,
			"amount": formatAmount(e.Amount),
		},
	}
}
