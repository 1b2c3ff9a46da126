package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeBetCreated  = "bet.created"
	TypeBetJoined   = "bet.joined"
	TypeBetWon      = "bet.won"
	TypeBetTimedOut = "bet.timeout"

	TypePriceBetCreated  = "pricebet.created"
	TypePriceBetJoined   = "pricebet.joined"
	TypePriceBetWon      = "pricebet.won"
	TypePriceBetTimedOut = "pricebet.timeout"
)

type BetCreated struct {
	ID        [32]byte
	Initiator [20]byte
	Oracle    [20]byte
	Token     string
	Wager     *big.Int
	Deadline  int64
}

func (BetCreated) EventType() string { return TypeBetCreated }

func (e BetCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeBetCreated,
		Attributes: map[string]string{
			"id":        hexID(e.ID),
			"initiator": hexAddr(e.Initiator),
			"oracle":    hexAddr(e.Oracle),
			"token":     e.Token,
			"wager":     formatAmount(e.Wager),
			"deadline":  intToString(e.Deadline),
		},
	}
}

type BetJoined struct {
	ID           [32]byte
	Counterparty [20]byte
	Wager        *big.Int
}

func (BetJoined) EventType() string { return TypeBetJoined }

func (e BetJoined) Event() *types.Event {
	return &types.Event{
		Type: TypeBetJoined,
		Attributes: map[string]string{
			"id":           hexID(e.ID),
			"counterparty": hexAddr(e.Counterparty),
			"wager":        formatAmount(e.Wager),
		},
	}
}

type BetWon struct {
	ID     [32]byte
	Winner [20]byte
	Pot    *big.Int
}

func (BetWon) EventType() string { return TypeBetWon }

func (e BetWon) Event() *types.Event {
	return &types.Event{
		Type: TypeBetWon,
		Attributes: map[string]string{
			"id":     hexID(e.ID),
			"winner": hexAddr(e.Winner),
			"pot":    formatAmount(e.Pot),
		},
	}
}

type BetTimedOut struct {
	ID       [32]byte
	Refunded *big.Int
}

func (BetTimedOut) EventType() string { return TypeBetTimedOut }

func (e BetTimedOut) Event() *types.Event {
	return &types.Event{
		Type: TypeBetTimedOut,
		Attributes: map[string]string{
			"id":       hexID(e.ID),
			"refunded": formatAmount(e.Refunded),
		},
	}
}

// PriceBetEvent covers the price-bet lifecycle; the rate attributes are only
// populated on the win notification.
type PriceBetEvent struct {
	Type       string
	ID         [32]byte
	Actor      [20]byte
	Amount     *big.Int
	TargetRate *big.Int
	QuoteRate  *big.Int
}

func (e PriceBetEvent) EventType() string { return e.Type }

func (e PriceBetEvent) Event() *types.Event {
	attrs := map[string]string{
		"id":     hexID(e.ID),
		"actor":  hexAddr(e.Actor),
		"amount": formatAmount(e.Amount),
	}
	if e.TargetRate != nil {
		attrs["targetRate"] = e.TargetRate.String()
	}
	if e.QuoteRate != nil {
		attrs["quoteRate"] = e.QuoteRate.String()
	}
	return &types.Event{Type: e.Type, Attributes: attrs}
}
