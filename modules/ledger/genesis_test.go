package ledger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"ledgerd/modules/storage/memstore"
	"ledgerd/types"
)

func TestFreshStartBuildsGenesisWithPremine(t *testing.T) {
	wallet := newTestWallet(t)
	e := newTestEngine(t, fundedConfig(wallet, "1000"))

	chain, err := e.GetChain()
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}
	if len(chain) != 1 {
		t.Fatalf("expected a single genesis block, got %d", len(chain))
	}
	if chain[0].PreviousHash != types.GenesisPreviousHash {
		t.Fatalf("expected genesis previous hash sentinel, got %q", chain[0].PreviousHash)
	}

	bal, err := e.GetBalance(wallet.Address)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	want, _ := types.NewAmount("1000")
	if bal != want {
		t.Fatalf("expected premine balance %s, got %s", want, bal)
	}

	pool, err := e.GetMempool()
	if err != nil {
		t.Fatalf("GetMempool: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("expected an empty mempool on a fresh start, got %d entries", len(pool))
	}
}

func TestRestartWithNoUserActivityRebuildsGenesisOnPremineChange(t *testing.T) {
	store := memstore.New(zap.NewNop())
	walletA := newTestWallet(t)

	cfg := fundedConfig(walletA, "1000")
	e1, err := New(context.Background(), store, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e1.Close()

	walletB := newTestWallet(t)
	cfg2 := fundedConfig(walletB, "2000")
	e2, err := New(context.Background(), store, cfg2, zap.NewNop())
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	defer e2.Close()

	chain, err := e2.GetChain()
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}
	if len(chain) != 1 {
		t.Fatalf("expected genesis to have been rebuilt in place, got %d blocks", len(chain))
	}

	balB, err := e2.GetBalance(walletB.Address)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	wantB, _ := types.NewAmount("2000")
	if balB != wantB {
		t.Fatalf("expected rebuilt genesis to credit the new founder address with %s, got %s", wantB, balB)
	}
}

func TestRestartWithUserActivityAppendsCorrectionBlock(t *testing.T) {
	store := memstore.New(zap.NewNop())
	walletA := newTestWallet(t)

	cfg := fundedConfig(walletA, "1000")
	e1, err := New(context.Background(), store, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := walletA.submitRequest(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000)
	if _, err := e1.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := e1.Mine(context.Background(), "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); err != nil {
		t.Fatalf("Mine: %v", err)
	}
	e1.Close()

	walletB := newTestWallet(t)
	cfg2 := fundedConfig(walletB, "2000")
	e2, err := New(context.Background(), store, cfg2, zap.NewNop())
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	defer e2.Close()

	chain, err := e2.GetChain()
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}
	if len(chain) < 3 {
		t.Fatalf("expected genesis + mined block + correction block to survive, got %d blocks", len(chain))
	}

	balA, err := e2.GetBalance(walletA.Address)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balA == 0 {
		t.Fatal("expected the original founder's genesis allocation to survive the restart untouched")
	}

	balB, err := e2.GetBalance(walletB.Address)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	wantB, _ := types.NewAmount("2000")
	if balB != wantB {
		t.Fatalf("expected the new founder allocation to be added via a correction block, got %s", balB)
	}
}
