package predicate

import (
	"errors"
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestWindowsPartitionTime(t *testing.T) {
	const deadline = int64(1_000)
	for _, now := range []int64{0, 999, 1_000, 1_001, 5_000} {
		open := ReleaseWindowOpen(now, deadline)
		timedOut := TimeoutReached(now, deadline)
		if open == timedOut {
			t.Fatalf("now=%d: release=%v timeout=%v, exactly one must hold", now, open, timedOut)
		}
	}
	if !ReleaseWindowOpen(1_000, 1_000) {
		t.Fatalf("release window must include the deadline instant")
	}
	if !TimeoutReached(1_001, 1_000) {
		t.Fatalf("timeout must open one second past the deadline")
	}
}

func TestHashCommitmentRoundTrip(t *testing.T) {
	secret := []byte("open sesame")
	lock := HashCommitment(secret)

	var want [32]byte
	copy(want[:], ethcrypto.Keccak256(secret))
	if lock != want {
		t.Fatalf("commitment mismatch")
	}
	if err := VerifyPreimage(lock, secret); err != nil {
		t.Fatalf("verify correct preimage: %v", err)
	}
	if err := VerifyPreimage(lock, []byte("open sesamE")); !errors.Is(err, ErrNotSatisfied) {
		t.Fatalf("verify wrong preimage: %v", err)
	}
	if err := VerifyPreimage(lock, nil); !errors.Is(err, ErrNotSatisfied) {
		t.Fatalf("verify empty preimage: %v", err)
	}
}

func TestPriceSatisfied(t *testing.T) {
	target := big.NewInt(100)
	now := int64(10_000)

	if err := PriceSatisfied(big.NewInt(101), target, now-10, now, 120); err != nil {
		t.Fatalf("rate above target: %v", err)
	}
	// The target itself does not win; the rate must strictly exceed it.
	if err := PriceSatisfied(big.NewInt(100), target, now-10, now, 120); !errors.Is(err, ErrNotSatisfied) {
		t.Fatalf("rate equal to target: %v", err)
	}
	if err := PriceSatisfied(big.NewInt(99), target, now-10, now, 120); !errors.Is(err, ErrNotSatisfied) {
		t.Fatalf("rate below target: %v", err)
	}
	if err := PriceSatisfied(big.NewInt(101), target, now-121, now, 120); !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("stale quote: %v", err)
	}
	if err := PriceSatisfied(big.NewInt(101), target, now-120, now, 120); err != nil {
		t.Fatalf("quote at staleness boundary: %v", err)
	}
	if err := PriceSatisfied(big.NewInt(101), target, now+1, now, 120); !errors.Is(err, ErrInvalidQuote) {
		t.Fatalf("quote from the future: %v", err)
	}
	if err := PriceSatisfied(nil, target, now-10, now, 120); !errors.Is(err, ErrInvalidQuote) {
		t.Fatalf("nil rate: %v", err)
	}
	if err := PriceSatisfied(big.NewInt(101), big.NewInt(0), now-10, now, 120); !errors.Is(err, ErrInvalidQuote) {
		t.Fatalf("zero target: %v", err)
	}
}

func TestVestedAmount(t *testing.T) {
	total := big.NewInt(1_000)
	const start, duration = int64(10_000), int64(1_000)

	if got := VestedAmount(total, start, duration, start-1); got.Sign() != 0 {
		t.Fatalf("before start: %s", got)
	}
	if got := VestedAmount(total, start, duration, start); got.Sign() != 0 {
		t.Fatalf("at start: %s", got)
	}
	if got := VestedAmount(total, start, duration, start+250); got.String() != "250" {
		t.Fatalf("quarter way: %s", got)
	}
	if got := VestedAmount(total, start, duration, start+duration); got.Cmp(total) != 0 {
		t.Fatalf("at end: %s", got)
	}
	if got := VestedAmount(total, start, duration, start+duration+1_000_000); got.Cmp(total) != 0 {
		t.Fatalf("long after end: %s", got)
	}
	if got := VestedAmount(total, start, 0, start+500); got.Sign() != 0 {
		t.Fatalf("zero duration: %s", got)
	}

	// Interior points truncate and never regress.
	odd := big.NewInt(997)
	prev := big.NewInt(0)
	for elapsed := int64(0); elapsed <= duration; elapsed += 7 {
		got := VestedAmount(odd, start, duration, start+elapsed)
		if got.Cmp(prev) < 0 {
			t.Fatalf("vested regressed at elapsed=%d: %s < %s", elapsed, got, prev)
		}
		if got.Cmp(odd) > 0 {
			t.Fatalf("vested exceeds total at elapsed=%d: %s", elapsed, got)
		}
		prev = got
	}
}

func TestOwedShare(t *testing.T) {
	if got := OwedShare(big.NewInt(100), 2, 3); got.String() != "66" {
		t.Fatalf("floor share: %s", got)
	}
	if got := OwedShare(big.NewInt(100), 3, 3); got.String() != "100" {
		t.Fatalf("full share: %s", got)
	}
	if got := OwedShare(nil, 1, 3); got.Sign() != 0 {
		t.Fatalf("nil total: %s", got)
	}
	if got := OwedShare(big.NewInt(100), 0, 3); got.Sign() != 0 {
		t.Fatalf("zero share: %s", got)
	}

	// The entitlements of a full payee set never sum past the funds received.
	shares := []uint64{1, 1, 1}
	received := big.NewInt(0)
	for _, step := range []int64{2, 3, 1, 7, 100} {
		received.Add(received, big.NewInt(step))
		sum := big.NewInt(0)
		for _, share := range shares {
			sum.Add(sum, OwedShare(received, share, 3))
		}
		if sum.Cmp(received) > 0 {
			t.Fatalf("entitlements %s exceed received %s", sum, received)
		}
	}
}
