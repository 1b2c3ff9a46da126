package events

import (
	"math/big"

	"escrowkit/core/types"
)

const (
	TypeVaultCreated   = "vault.created"
	TypeVaultDeposited = "vault.deposited"
	TypeVaultRequested = "vault.requested"
	TypeVaultFinalized = "vault.finalized"
	TypeVaultCancelled = "vault.cancelled"
)

// VaultEvent covers the full vault lifecycle; depositor, receiver and amount
// are only set on the transitions that move funds.
type VaultEvent struct {
	Type      string
	ID        [32]byte
	Owner     [20]byte
	Depositor [20]byte
	Receiver  [20]byte
	Token     string
	Amount    *big.Int
}

func (e VaultEvent) EventType() string { return e.Type }

func (e VaultEvent) Event() *types.Event {
	attrs := map[string]string{
		"id":    hexID(e.ID),
		"owner": hexAddr(e.Owner),
		"token": e.Token,
	}
	if e.Depositor != ([20]byte{}) {
		attrs["depositor"] = hexAddr(e.Depositor)
	}
	if e.Receiver != ([20]byte{}) {
		attrs["receiver"] = hexAddr(e.Receiver)
	}
	if e.Amount != nil {
		attrs["amount"] = formatAmount(e.Amount)
	}
	return &types.Event{Type: e.Type, Attributes: attrs}
}
