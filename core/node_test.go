package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"escrowkit/config"
	"escrowkit/core/events"
	"escrowkit/native/bet"
	"escrowkit/native/common"
	"escrowkit/native/oracle"
	"escrowkit/native/predicate"
	"escrowkit/storage"
)

func newTestNode(t *testing.T) (*Node, *int64) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Normalise()
	node, err := NewNode(storage.NewMemDB(), cfg, nil, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	now := int64(1_000)
	node.SetNowFunc(func() int64 { return now })
	return node, &now
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestEscrowLifecycleOverPersistentState(t *testing.T) {
	node, _ := newTestNode(t)
	defer node.Close()
	payer := newTestAddress(0x01)
	payee := newTestAddress(0x02)

	if err := node.State().Mint(payer[:], "NHB", big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	record, err := node.Escrow().Create(payer, payee, "order-42", "NHB", big.NewInt(400), 0, 2_000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := node.Escrow().Fund(record.ID, payer); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := node.Escrow().Release(record.ID, payee); err != nil {
		t.Fatalf("release: %v", err)
	}

	payeeAcc, err := node.State().GetAccount(payee[:])
	if err != nil {
		t.Fatalf("get payee: %v", err)
	}
	if payeeAcc.Balance("NHB").String() != "400" {
		t.Fatalf("payee balance: %s", payeeAcc.Balance("NHB"))
	}
	held, err := node.State().EscrowBalance(record.ID, "NHB")
	if err != nil {
		t.Fatalf("escrow balance: %v", err)
	}
	if held.Sign() != 0 {
		t.Fatalf("custody after release: %s", held)
	}

	drained := node.DrainEvents()
	types := make([]string, len(drained))
	for i, event := range drained {
		types[i] = event.EventType()
	}
	want := []string{events.TypeEscrowCreated, events.TypeEscrowFunded, events.TypeEscrowReleased}
	if len(types) != len(want) {
		t.Fatalf("event stream: %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, types[i], want[i])
		}
	}
	if len(node.DrainEvents()) != 0 {
		t.Fatalf("drain is not destructive")
	}
}

func TestHashLockedTransferAcrossRestart(t *testing.T) {
	db := storage.NewMemDB()
	cfg := &config.Config{}
	cfg.Normalise()
	payer := newTestAddress(0x01)
	payee := newTestAddress(0x02)
	secret := []byte("correct horse battery staple")
	lock := predicate.HashCommitment(secret)

	node, err := NewNode(db, cfg, nil, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	node.SetNowFunc(func() int64 { return 1_000 })
	if err := node.State().Mint(payer[:], "NHB", big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	record, err := node.HTLC().Create(payer, payee, "NHB", big.NewInt(500), lock, 2_000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A second node over the same database sees the contract and can settle
	// it. State lives in the store, not in the engines.
	restarted, err := NewNode(db, cfg, nil, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("restart node: %v", err)
	}
	restarted.SetNowFunc(func() int64 { return 1_500 })
	if err := restarted.HTLC().Claim(record.ID, payee, secret); err != nil {
		t.Fatalf("claim after restart: %v", err)
	}
	payeeAcc, err := restarted.State().GetAccount(payee[:])
	if err != nil {
		t.Fatalf("get payee: %v", err)
	}
	if payeeAcc.Balance("NHB").String() != "500" {
		t.Fatalf("payee balance after claim: %s", payeeAcc.Balance("NHB"))
	}
}

func TestPriceBetUsesRegisteredOracle(t *testing.T) {
	node, now := newTestNode(t)
	defer node.Close()
	owner := newTestAddress(0x01)
	player := newTestAddress(0x02)

	manual := oracle.NewManual()
	node.RegisterOracleSource("manual", manual)

	if err := node.State().Mint(owner[:], "NHB", big.NewInt(500)); err != nil {
		t.Fatalf("mint owner: %v", err)
	}
	if err := node.State().Mint(player[:], "NHB", big.NewInt(500)); err != nil {
		t.Fatalf("mint player: %v", err)
	}

	record, err := node.PriceBets().Create(owner, "moon-bet", "NHB", big.NewInt(500), "NHB", "USD", big.NewInt(100), 2_000, 600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := node.PriceBets().Join(record.ID, player, big.NewInt(500)); err != nil {
		t.Fatalf("join: %v", err)
	}

	*now = 2_100
	manual.Set("NHB", "USD", big.NewInt(99), *now)
	if err := node.PriceBets().Win(record.ID, player); !errors.Is(err, bet.ErrPriceNotSatisfied) {
		t.Fatalf("win below target: %v", err)
	}
	manual.Set("NHB", "USD", big.NewInt(101), *now)
	if err := node.PriceBets().Win(record.ID, player); err != nil {
		t.Fatalf("win: %v", err)
	}
	playerAcc, err := node.State().GetAccount(player[:])
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if playerAcc.Balance("NHB").String() != "1000" {
		t.Fatalf("player balance after win: %s", playerAcc.Balance("NHB"))
	}
}

func TestPausedModuleRefusesTransitions(t *testing.T) {
	node, _ := newTestNode(t)
	defer node.Close()
	payer := newTestAddress(0x01)
	payee := newTestAddress(0x02)

	if err := node.State().Mint(payer[:], "NHB", big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	record, err := node.Escrow().Create(payer, payee, "order-1", "NHB", big.NewInt(100), 0, 2_000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := node.State().SetPaused("escrow", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := node.Escrow().Fund(record.ID, payer); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("fund while paused: %v", err)
	}
	// Other modules keep running.
	if _, err := node.Vesting().Create(payer, payee, "NHB", big.NewInt(100), 1_000, 1_000); err != nil {
		t.Fatalf("vesting while escrow paused: %v", err)
	}

	if err := node.State().SetPaused("escrow", false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := node.Escrow().Fund(record.ID, payer); err != nil {
		t.Fatalf("fund after unpause: %v", err)
	}
}

func TestValueIsConservedAcrossEngines(t *testing.T) {
	node, _ := newTestNode(t)
	defer node.Close()
	funder := newTestAddress(0x01)
	a := newTestAddress(0x0A)
	b := newTestAddress(0x0B)

	if err := node.State().Mint(funder[:], "NHB", big.NewInt(10_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	record, err := node.Splitter().Create(funder, "NHB", [][20]byte{a, b}, []uint64{3, 2}, []byte("royalties"))
	if err != nil {
		t.Fatalf("create splitter: %v", err)
	}
	if err := node.Splitter().Fund(funder, record.ID, big.NewInt(1_003)); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := node.Splitter().Release(a, record.ID); err != nil {
		t.Fatalf("release a: %v", err)
	}
	if _, err := node.Splitter().Release(b, record.ID); err != nil {
		t.Fatalf("release b: %v", err)
	}
	if err := node.Splitter().Close(funder, record.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Everything minted is still on some account; custody drained to zero.
	vaultAddr, err := common.ModuleAddress("splitter", "NHB")
	if err != nil {
		t.Fatalf("module address: %v", err)
	}
	total := big.NewInt(0)
	for _, addr := range [][20]byte{funder, a, b, vaultAddr} {
		acc, err := node.State().GetAccount(addr[:])
		if err != nil {
			t.Fatalf("get account: %v", err)
		}
		total.Add(total, acc.Balance("NHB"))
	}
	if total.String() != "10000" {
		t.Fatalf("minted value not conserved: %s", total)
	}
	held, err := node.State().SplitterBalance(record.ID, "NHB")
	if err != nil {
		t.Fatalf("splitter balance: %v", err)
	}
	if held.Sign() != 0 {
		t.Fatalf("custody after close: %s", held)
	}
}
