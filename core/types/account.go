package types

import "math/big"

// Account holds the token balances tracked by the ledger. Balances are keyed
// by the canonical token symbol and are always non-nil once the account has
// passed through EnsureDefaults.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances"`
}

// EnsureDefaults initialises the balance map so callers can index it without
// nil checks.
func (a *Account) EnsureDefaults() {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
}

// Balance returns the balance for the given token, treating missing entries as
// zero. The returned value is the stored instance, not a copy.
func (a *Account) Balance(token string) *big.Int {
	a.EnsureDefaults()
	bal, ok := a.Balances[token]
	if !ok || bal == nil {
		bal = big.NewInt(0)
		a.Balances[token] = bal
	}
	return bal
}

// SetBalance stores the balance for the given token.
func (a *Account) SetBalance(token string, amount *big.Int) {
	a.EnsureDefaults()
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.Balances[token] = amount
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balances: make(map[string]*big.Int)}
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for token, bal := range a.Balances {
		if bal == nil {
			clone.Balances[token] = big.NewInt(0)
			continue
		}
		clone.Balances[token] = new(big.Int).Set(bal)
	}
	return clone
}
