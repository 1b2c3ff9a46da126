package state

import (
	"errors"
	"fmt"
	"math/big"

	"escrowkit/native/common"
)

// ErrInsufficientCustody is returned when a record's held balance cannot
// cover a payout. A correct engine never triggers it; it is the ledger's
// backstop against over-release.
var ErrInsufficientCustody = errors.New("state: insufficient custody balance")

func custodyKey(module string, id [32]byte, token string) []byte {
	return storageKey(custodyPrefix, []byte(module), id[:], []byte(token))
}

// CustodyBalance returns the amount the record currently holds in escrow.
func (m *Manager) CustodyBalance(module string, id [32]byte, token string) (*big.Int, error) {
	return m.loadBigInt(custodyKey(module, id, token))
}

// creditCustody moves amt from the payer's account into the module vault and
// raises the record's held balance. Partial failures roll the account
// mutations back so funded and held never diverge.
func (m *Manager) creditCustody(module string, id [32]byte, from [20]byte, token string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return fmt.Errorf("%s: credit amount must be positive", module)
	}
	vault, err := common.ModuleAddress(module, token)
	if err != nil {
		return err
	}
	payerAcc, err := m.GetAccount(from[:])
	if err != nil {
		return err
	}
	vaultAcc, err := m.GetAccount(vault[:])
	if err != nil {
		return err
	}
	originalPayer := payerAcc.Clone()
	originalVault := vaultAcc.Clone()

	if _, err := MustSubBalance(payerAcc.Balance(token), amt); err != nil {
		return err
	}
	if _, err := MustAddBalance(vaultAcc.Balance(token), amt); err != nil {
		return err
	}
	if err := m.PutAccount(from[:], payerAcc); err != nil {
		return err
	}
	if err := m.PutAccount(vault[:], vaultAcc); err != nil {
		if restoreErr := m.PutAccount(from[:], originalPayer); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback payer: %w", restoreErr))
		}
		return err
	}
	held, err := m.loadBigInt(custodyKey(module, id, token))
	if err == nil {
		err = m.writeBigInt(custodyKey(module, id, token), new(big.Int).Add(held, amt))
	}
	if err != nil {
		if restoreErr := m.PutAccount(from[:], originalPayer); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback payer: %w", restoreErr))
		}
		if restoreErr := m.PutAccount(vault[:], originalVault); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback vault: %w", restoreErr))
		}
		return err
	}
	return nil
}

// debitCustody lowers the record's held balance and moves amt from the module
// vault to the recipient's account. The held balance is checked first so one
// record can never spend another record's custody.
func (m *Manager) debitCustody(module string, id [32]byte, to [20]byte, token string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return fmt.Errorf("%s: debit amount must be positive", module)
	}
	held, err := m.loadBigInt(custodyKey(module, id, token))
	if err != nil {
		return err
	}
	if held.Cmp(amt) < 0 {
		return ErrInsufficientCustody
	}
	vault, err := common.ModuleAddress(module, token)
	if err != nil {
		return err
	}
	vaultAcc, err := m.GetAccount(vault[:])
	if err != nil {
		return err
	}
	recipientAcc, err := m.GetAccount(to[:])
	if err != nil {
		return err
	}
	originalVault := vaultAcc.Clone()
	originalRecipient := recipientAcc.Clone()

	if _, err := MustSubBalance(vaultAcc.Balance(token), amt); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return ErrInsufficientCustody
		}
		return err
	}
	if _, err := MustAddBalance(recipientAcc.Balance(token), amt); err != nil {
		return err
	}
	if err := m.PutAccount(vault[:], vaultAcc); err != nil {
		return err
	}
	if err := m.PutAccount(to[:], recipientAcc); err != nil {
		if restoreErr := m.PutAccount(vault[:], originalVault); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback vault: %w", restoreErr))
		}
		return err
	}
	if err := m.writeBigInt(custodyKey(module, id, token), new(big.Int).Sub(held, amt)); err != nil {
		if restoreErr := m.PutAccount(vault[:], originalVault); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback vault: %w", restoreErr))
		}
		if restoreErr := m.PutAccount(to[:], originalRecipient); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback recipient: %w", restoreErr))
		}
		return err
	}
	return nil
}
