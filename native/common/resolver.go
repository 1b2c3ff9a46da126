package common

import (
	"encoding/binary"
	"errors"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoSeeds    = errors.New("resolver: at least one seed required")
	ErrEmptySeed  = errors.New("resolver: empty seed")
	ErrEmptyLabel = errors.New("resolver: empty module label")
)

// Resolve derives the canonical 32-byte record identifier for the supplied
// seeds. Each seed is length-prefixed before hashing so that seed boundaries
// cannot be shifted to force a collision between different seed tuples
// (e.g. ["ab","c"] vs ["a","bc"]). The derivation is a pure function of its
// inputs.
func Resolve(seeds ...[]byte) ([32]byte, error) {
	var id [32]byte
	if len(seeds) == 0 {
		return id, ErrNoSeeds
	}
	buf := make([]byte, 0, 64)
	for _, seed := range seeds {
		if len(seed) == 0 {
			return id, ErrEmptySeed
		}
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(seed)))
		buf = append(buf, length[:]...)
		buf = append(buf, seed...)
	}
	copy(id[:], ethcrypto.Keccak256(buf))
	return id, nil
}

// ModuleAddress derives the custody vault address owned by a module for the
// given token. The address is the truncated keccak256 of the module label and
// token symbol, so no external actor holds a key for it.
func ModuleAddress(module, token string) ([20]byte, error) {
	var addr [20]byte
	label := strings.TrimSpace(module)
	if label == "" {
		return addr, ErrEmptyLabel
	}
	hash := ethcrypto.Keccak256([]byte("module/" + label + "/" + strings.ToUpper(strings.TrimSpace(token))))
	copy(addr[:], hash[12:])
	return addr, nil
}
