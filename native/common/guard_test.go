package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	view := pauseMap{"escrow": true}

	if err := Guard(view, "escrow"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("paused module: %v", err)
	}
	if err := Guard(view, "htlc"); err != nil {
		t.Fatalf("running module: %v", err)
	}
	if err := Guard(nil, "escrow"); err != nil {
		t.Fatalf("nil view: %v", err)
	}
	if err := Guard(view, ""); err != nil {
		t.Fatalf("blank label: %v", err)
	}
}
