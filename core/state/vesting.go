package state

import (
	"fmt"
	"math/big"

	"escrowkit/native/common"
	"escrowkit/native/vesting"
)

const vestingModule = "vesting"

type storedVesting struct {
	ID          [32]byte
	Funder      [20]byte
	Beneficiary [20]byte
	Token       string
	Total       *big.Int
	Released    *big.Int
	Start       *big.Int
	Duration    *big.Int
	CreatedAt   *big.Int
	Status      uint8
}

func newStoredVesting(s *vesting.Schedule) *storedVesting {
	stored := &storedVesting{
		ID:          s.ID,
		Funder:      s.Funder,
		Beneficiary: s.Beneficiary,
		Token:       s.Token,
		Total:       big.NewInt(0),
		Released:    big.NewInt(0),
		Start:       big.NewInt(s.Start),
		Duration:    big.NewInt(s.Duration),
		CreatedAt:   big.NewInt(s.CreatedAt),
		Status:      uint8(s.Status),
	}
	if s.Total != nil {
		stored.Total = new(big.Int).Set(s.Total)
	}
	if s.Released != nil {
		stored.Released = new(big.Int).Set(s.Released)
	}
	return stored
}

func (s *storedVesting) toSchedule() (*vesting.Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("vesting: nil storage record")
	}
	normalized, err := common.NormalizeToken(s.Token)
	if err != nil {
		return nil, err
	}
	out := &vesting.Schedule{
		ID:          s.ID,
		Funder:      s.Funder,
		Beneficiary: s.Beneficiary,
		Token:       normalized,
		Total:       big.NewInt(0),
		Released:    big.NewInt(0),
		Status:      vesting.Status(s.Status),
	}
	if s.Total != nil {
		out.Total = new(big.Int).Set(s.Total)
	}
	if s.Released != nil {
		out.Released = new(big.Int).Set(s.Released)
	}
	if s.Start != nil {
		out.Start = s.Start.Int64()
	}
	if s.Duration != nil {
		out.Duration = s.Duration.Int64()
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("vesting: invalid stored status %d", s.Status)
	}
	return out, nil
}

func (m *Manager) VestingPut(s *vesting.Schedule) error {
	if s == nil {
		return fmt.Errorf("vesting: nil record")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("vesting: invalid status %d", s.Status)
	}
	return m.writeRLP(storageKey(vestingPrefix, s.ID[:]), newStoredVesting(s))
}

func (m *Manager) VestingGet(id [32]byte) (*vesting.Schedule, bool) {
	stored := new(storedVesting)
	ok, err := m.loadRLP(storageKey(vestingPrefix, id[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	record, err := stored.toSchedule()
	if err != nil {
		return nil, false
	}
	return record, true
}

func (m *Manager) VestingCredit(id [32]byte, from [20]byte, token string, amt *big.Int) error {
	return m.creditCustody(vestingModule, id, from, token, amt)
}

func (m *Manager) VestingDebit(id [32]byte, to [20]byte, token string, amt *big.Int) error {
	return m.debitCustody(vestingModule, id, to, token, amt)
}
