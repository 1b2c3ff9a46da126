package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"escrowkit/storage"
)

// Manager reads and writes all ledger state: accounts, per-record custody
// balances and the records of every engine family. Every key is hashed with
// keccak256 before it reaches the backing store so key shapes never collide.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func storageKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) writeRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// loadRLP decodes the value under key into out. The boolean reports whether
// the key existed.
func (m *Manager) loadRLP(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) loadBigInt(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.loadRLP(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) writeBigInt(key []byte, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("state: refusing to store negative value")
	}
	return m.writeRLP(key, value)
}

// SetPaused pauses or unpauses an engine module. Engines consult the flag
// through the guard before every transition.
func (m *Manager) SetPaused(module string, paused bool) error {
	key := storageKey(pausePrefix, []byte(module))
	if !paused {
		err := m.db.Delete(key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	return m.db.Put(key, []byte{1})
}

// IsPaused reports whether transitions for the module are suspended. Read
// errors count as paused so a broken store fails closed.
func (m *Manager) IsPaused(module string) bool {
	ok, err := m.db.Has(storageKey(pausePrefix, []byte(module)))
	if err != nil {
		return true
	}
	return ok
}
