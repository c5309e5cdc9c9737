package api

import (
	"net/http"
	"testing"

	"ledgerd/modules/ledger"
	"ledgerd/types"
)

// fundedMinerTestConfig returns a config whose premine founder allocation
// credits wallet, so a transfer signed by wallet has something to spend.
func fundedMinerTestConfig(wallet signedWallet) ledger.Config {
	cfg := ledger.DefaultConfig()
	founderAmt, _ := types.NewAmount("1000")
	cfg.Premine = types.DefaultPremineAllocations(
		wallet.Address, founderAmt,
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 0,
		"0xcccccccccccccccccccccccccccccccccccccccc", 0,
	)
	return cfg
}

func TestMineHandlerCreditsMinerAddress(t *testing.T) {
	wallet := newSignedWallet(t)
	at := newAPITester(t, fundedMinerTestConfig(wallet))

	submitResp := at.post("/api/transaction", wallet.sign(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000), nil)
	if submitResp.StatusCode != http.StatusOK {
		t.Fatalf("expected submit to succeed, got %d", submitResp.StatusCode)
	}
	submitResp.Body.Close()

	miner := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	resp := at.post("/api/mine", mineRequest{MinerAddress: miner}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var block types.Block
	decodeJSON(t, resp, &block)
	if block.Index != 1 {
		t.Fatalf("expected the second block (index 1), got %d", block.Index)
	}

	coinbase, ok := block.Coinbase()
	if !ok {
		t.Fatal("expected a coinbase transaction")
	}
	if coinbase.To != miner {
		t.Fatalf("expected coinbase to credit %s, got %s", miner, coinbase.To)
	}
}

func TestMineHandlerRejectsEmptyMinerAddress(t *testing.T) {
	at := newAPITester(t, testConfig())
	resp := at.post("/api/mine", mineRequest{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMineHandlerRejectsEmptyMempool(t *testing.T) {
	at := newAPITester(t, testConfig())
	miner := "0xdddddddddddddddddddddddddddddddddddddddd"

	resp := at.post("/api/mine", mineRequest{MinerAddress: miner}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected mining an empty mempool to fail with 400, got %d", resp.StatusCode)
	}
}

func TestMineHandlerReturnsNoPendingTransactionsAfterMining(t *testing.T) {
	wallet := newSignedWallet(t)
	at := newAPITester(t, fundedMinerTestConfig(wallet))
	miner := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

	submitResp := at.post("/api/transaction", wallet.sign(t, "0xdddddddddddddddddddddddddddddddddddddddd", "10", 1000), nil)
	submitResp.Body.Close()

	first := at.post("/api/mine", mineRequest{MinerAddress: miner}, nil)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected first mine to succeed, got %d", first.StatusCode)
	}
	first.Body.Close()

	second := at.post("/api/mine", mineRequest{MinerAddress: miner}, nil)
	if second.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected the empty-mempool mine to fail with 400, got %d", second.StatusCode)
	}
}
