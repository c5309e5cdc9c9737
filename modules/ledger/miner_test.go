package ledger

import (
	"context"
	"sync"
	"testing"

	"ledgerd/modules"
	"ledgerd/types"
)

func TestMineCreditsTheConfiguredReward(t *testing.T) {
	wallet := newTestWallet(t)
	e := newTestEngine(t, fundedConfig(wallet, "1000"))

	req := wallet.submitRequest(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000)
	if _, err := e.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	miner := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	block, err := e.Mine(context.Background(), miner)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}

	coinbase, ok := block.Coinbase()
	if !ok {
		t.Fatal("expected a coinbase transaction")
	}
	want := types.DefaultTokenomics().CalculateReward(1)
	if coinbase.Amount != want {
		t.Fatalf("expected reward %s, got %s", want, coinbase.Amount)
	}
}

func TestConcurrentMineOnlyOneWinnerPerBlockIndex(t *testing.T) {
	wallet := newTestWallet(t)
	e := newTestEngine(t, fundedConfig(wallet, "1000"))

	req := wallet.submitRequest(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000)
	if _, err := e.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	const racers = 5
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			miner := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee" + string(rune('0'+i))
			_, err := e.Mine(context.Background(), miner)
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one concurrent Mine call to succeed, got %d", successes)
	}

	chain, err := e.GetChain()
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected the chain to advance by exactly one block, got %d blocks", len(chain))
	}
}

func TestMineRejectsEmptyMempool(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	_, err := e.Mine(context.Background(), "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if kind := modules.KindOf(err); kind != modules.KindNoPendingTransactions {
		t.Fatalf("expected KindNoPendingTransactions, got %s", kind)
	}
}

func TestMineClampsRewardAtMaxSupply(t *testing.T) {
	wallet := newTestWallet(t)
	cfg := fundedConfig(wallet, "1000")
	tiny, _ := types.NewAmount("50")
	hundred, _ := types.NewAmount("100")
	cfg.Tokenomics = types.Tokenomics{
		InitialReward:   hundred,
		HalvingInterval: 1_000_000,
		MaxSupply:       tiny,
	}
	e := newTestEngine(t, cfg)

	req := wallet.submitRequest(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000)
	if _, err := e.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	miner := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	block, err := e.Mine(context.Background(), miner)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	coinbase, ok := block.Coinbase()
	if !ok {
		t.Fatal("expected a coinbase transaction")
	}
	if coinbase.Amount != tiny {
		t.Fatalf("expected reward clamped to remaining supply %s, got %s", tiny, coinbase.Amount)
	}

	// A second block has nothing left to mine a reward for.
	req2 := wallet.submitRequest(t, "0xdddddddddddddddddddddddddddddddddddddddd", "5", 2000)
	if _, err := e.Submit(context.Background(), req2); err != nil {
		t.Fatalf("Submit (2): %v", err)
	}
	_, err = e.Mine(context.Background(), miner)
	if kind := modules.KindOf(err); kind != modules.KindMaxSupplyReached {
		t.Fatalf("expected KindMaxSupplyReached, got %s", kind)
	}
}
