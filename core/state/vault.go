package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/vault"
)

const vaultModule = "vault"

type storedWithdrawal struct {
	Amount      *big.Int
	Receiver    [20]byte
	RequestedAt *big.Int
}

type storedVault struct {
	ID        [32]byte
	Owner     [20]byte
	Recovery  [20]byte
	Token     string
	Balance   *big.Int
	WaitTime  *big.Int
	Pending   []storedWithdrawal
	CreatedAt *big.Int
	Status    uint8
}

func newStoredVault(v *vault.Vault) *storedVault {
	stored := &storedVault{
		ID:        v.ID,
		Owner:     v.Owner,
		Recovery:  v.Recovery,
		Token:     v.Token,
		Balance:   big.NewInt(0),
		WaitTime:  big.NewInt(v.WaitTime),
		CreatedAt: big.NewInt(v.CreatedAt),
		Status:    uint8(v.Status),
	}
	if v.Balance != nil {
		stored.Balance = new(big.Int).Set(v.Balance)
	}
	// RLP has no optional pointer fields; a pending withdrawal rides as a
	// zero-or-one element list.
	if v.Pending != nil {
		entry := storedWithdrawal{
			Amount:      big.NewInt(0),
			Receiver:    v.Pending.Receiver,
			RequestedAt: big.NewInt(v.Pending.RequestedAt),
		}
		if v.Pending.Amount != nil {
			entry.Amount = new(big.Int).Set(v.Pending.Amount)
		}
		stored.Pending = []storedWithdrawal{entry}
	}
	return stored
}

func (s *storedVault) toVault() (*vault.Vault, error) {
	if s == nil {
		return nil, fmt.Errorf("vault: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &vault.Vault{
		ID:       s.ID,
		Owner:    s.Owner,
		Recovery: s.Recovery,
		Token:    normalized,
		Balance:  big.NewInt(0),
		Status:   vault.Status(s.Status),
	}
	if s.Balance != nil {
		out.Balance = new(big.Int).Set(s.Balance)
	}
	if s.WaitTime != nil {
		out.WaitTime = s.WaitTime.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if len(s.Pending) > 1 {
		return nil, fmt.Errorf("vault: %d pending withdrawals stored", len(s.Pending))
	}
	if len(s.Pending) == 1 {
		entry := s.Pending[0]
		pending := &vault.Withdrawal{Amount: big.NewInt(0), Receiver: entry.Receiver}
		if entry.Amount != nil {
			pending.Amount = new(big.Int).Set(entry.Amount)
		}
		if entry.RequestedAt != nil {
			pending.RequestedAt = entry.RequestedAt.Int64()
		}
		out.Pending = pending
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("vault: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) VaultPut(v *vault.Vault) error {
	if v == nil {
		return fmt.Errorf("vault: nil record")
	}
	if !v.Status.Valid() {
		return fmt.Errorf("vault: invalid status %d", v.Status)
	}
	return m.writeRLP(storageKey(vaultPrefix, v.ID[:]), newStoredVault(v))
}

func (m *Manager) VaultGet(id [32]byte) (*vault.Vault, bool) {
	stored := new(storedVault)
	ok, err := m.loadRLP(storageKey(vaultPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toVault()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) VaultCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(vaultModule, id, from, token, amt)
}

func (m *Manager) VaultDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(vaultModule, id, to, token, amt)
}
