package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"escrowkit/core/types"
)

var (
	// ErrInsufficientBalance is returned when a debit would drive a balance
	// negative.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrNegativeAmount is returned when a balance mutation is asked to move
	// a negative amount.
	ErrNegativeAmount = errors.New("state: negative amount")
)

// storedBalance is the RLP shape of one token balance. Balances are stored as
// a sorted list because RLP has no map encoding.
type storedBalance struct {
	Token  string
	Amount *big.Int
}

type storedAccount struct {
	Nonce    uint64
	Balances []storedBalance
}

func newStoredAccount(acc *types.Account) *storedAccount {
	stored := &storedAccount{Nonce: acc.Nonce}
	tokens := make([]string, 0, len(acc.Balances))
	for token := range acc.Balances {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		amount := acc.Balances[token]
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		stored.Balances = append(stored.Balances, storedBalance{Token: token, Amount: new(big.Int).Set(amount)})
	}
	return stored
}

func (s *storedAccount) toAccount() *types.Account {
	acc := &types.Account{Nonce: s.Nonce, Balances: make(map[string]*big.Int, len(s.Balances))}
	for _, bal := range s.Balances {
		amount := big.NewInt(0)
		if bal.Amount != nil {
			amount = new(big.Int).Set(bal.Amount)
		}
		acc.Balances[bal.Token] = amount
	}
	return acc
}

func accountKey(addr []byte) []byte {
	return storageKey(accountPrefix, addr)
}

// GetAccount loads the account stored at addr. Unknown addresses yield a
// fresh zero-balance account rather than an error.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("state: address must not be empty")
	}
	stored := new(storedAccount)
	ok, err := m.loadRLP(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balances: make(map[string]*big.Int)}, nil
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account at addr.
func (m *Manager) PutAccount(addr []byte, acc *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("state: address must not be empty")
	}
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	for token, bal := range acc.Balances {
		if bal != nil && bal.Sign() < 0 {
			return fmt.Errorf("state: negative %s balance for %x", token, addr)
		}
	}
	return m.writeRLP(accountKey(addr), newStoredAccount(acc))
}

// MustAddBalance adds amt to balance in place and returns a rollback that
// restores the previous value. The name mirrors the invariant: failures leave
// the balance untouched.
func MustAddBalance(balance, amt *big.Int) (func(), error) {
	if balance == nil || amt == nil {
		return nil, fmt.Errorf("state: nil balance operand")
	}
	if amt.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	prev := new(big.Int).Set(balance)
	balance.Add(balance, amt)
	return func() { balance.Set(prev) }, nil
}

// MustSubBalance subtracts amt from balance in place and returns a rollback
// that restores the previous value. Debits that would drive the balance
// negative fail with ErrInsufficientBalance.
func MustSubBalance(balance, amt *big.Int) (func(), error) {
	if balance == nil || amt == nil {
		return nil, fmt.Errorf("state: nil balance operand")
	}
	if amt.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if balance.Cmp(amt) < 0 {
		return nil, ErrInsufficientBalance
	}
	prev := new(big.Int).Set(balance)
	balance.Sub(balance, amt)
	return func() { balance.Set(prev) }, nil
}

// Mint credits freshly issued tokens to addr. It exists for genesis setup and
// tests; regular transitions only ever move existing balances.
func (m *Manager) Mint(addr []byte, token string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return ErrNegativeAmount
	}
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	if _, err := MustAddBalance(acc.Balance(token), amt); err != nil {
		return err
	}
	return m.PutAccount(addr, acc)
}
