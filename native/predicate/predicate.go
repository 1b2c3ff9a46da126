// Package predicate holds the closed set of gating conditions the escrow
// engines evaluate before moving value. The set is fixed at compile time and
// dispatched by Kind; every evaluator is a pure function of its inputs.
package predicate

import (
	"bytes"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Kind identifies one of the supported predicate families.
type Kind uint8

const (
	KindDeadline Kind = iota
	KindHashLock
	KindPriceThreshold
	KindLinearVesting
	KindProportionalSplit
)

func (k Kind) String() string {
	switch k {
	case KindDeadline:
		return "deadline"
	case KindHashLock:
		return "hashlock"
	case KindPriceThreshold:
		return "price-threshold"
	case KindLinearVesting:
		return "linear-vesting"
	case KindProportionalSplit:
		return "proportional-split"
	default:
		return "unknown"
	}
}

var (
	ErrNotSatisfied = errors.New("predicate: not satisfied")
	ErrStaleQuote   = errors.New("predicate: oracle quote too old")
	ErrInvalidQuote = errors.New("predicate: invalid oracle quote")
)

// ReleaseWindowOpen reports whether an authorised release is still permitted.
// Paired with TimeoutReached so that for any instant exactly one of the two
// holds: release while now <= deadline, timeout once now > deadline.
func ReleaseWindowOpen(now, deadline int64) bool {
	return now <= deadline
}

// TimeoutReached reports whether the timeout/reclaim path has opened.
func TimeoutReached(now, deadline int64) bool {
	return now > deadline
}

// HashCommitment computes the keccak256 commitment for a secret. Keccak256 is
// the single hash algorithm used for hash locks in this module.
func HashCommitment(secret []byte) [32]byte {
	var lock [32]byte
	copy(lock[:], ethcrypto.Keccak256(secret))
	return lock
}

// VerifyPreimage checks a revealed preimage against the committed hash lock.
func VerifyPreimage(lock [32]byte, preimage []byte) error {
	digest := ethcrypto.Keccak256(preimage)
	if !bytes.Equal(digest, lock[:]) {
		return ErrNotSatisfied
	}
	return nil
}

// PriceSatisfied evaluates the threshold-oracle predicate: the quote must have
// been published within maxAge of now and the rate must exceed the target.
// Stale or malformed quotes fail closed.
func PriceSatisfied(rate, target *big.Int, publishedAt, now, maxAge int64) error {
	if rate == nil || rate.Sign() <= 0 {
		return ErrInvalidQuote
	}
	if target == nil || target.Sign() <= 0 {
		return ErrInvalidQuote
	}
	if publishedAt <= 0 || publishedAt > now {
		return ErrInvalidQuote
	}
	if maxAge > 0 && now-publishedAt > maxAge {
		return ErrStaleQuote
	}
	if rate.Cmp(target) <= 0 {
		return ErrNotSatisfied
	}
	return nil
}

// VestedAmount computes the linearly vested portion of total at the given
// instant. Before start nothing is vested; from start+duration everything is.
// The interior is total * elapsed / duration in arbitrary-precision integer
// math, clamped so rounding can never exceed total.
func VestedAmount(total *big.Int, start, duration, now int64) *big.Int {
	if total == nil || total.Sign() <= 0 || duration <= 0 {
		return big.NewInt(0)
	}
	if now < start {
		return big.NewInt(0)
	}
	if now >= start+duration {
		return new(big.Int).Set(total)
	}
	elapsed := big.NewInt(now - start)
	vested := new(big.Int).Mul(total, elapsed)
	vested.Quo(vested, big.NewInt(duration))
	if vested.Cmp(total) > 0 {
		vested.Set(total)
	}
	return vested
}

// OwedShare computes floor(totalReceived * share / totalShares), the lifetime
// entitlement of one payee of a proportional split.
func OwedShare(totalReceived *big.Int, share, totalShares uint64) *big.Int {
	if totalReceived == nil || totalReceived.Sign() <= 0 || share == 0 || totalShares == 0 {
		return big.NewInt(0)
	}
	owed := new(big.Int).Mul(totalReceived, new(big.Int).SetUint64(share))
	owed.Quo(owed, new(big.Int).SetUint64(totalShares))
	if owed.Cmp(totalReceived) > 0 {
		owed.Set(totalReceived)
	}
	return owed
}
