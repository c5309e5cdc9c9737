package memstore

import (
	"testing"

	"ledgerd/modules"
	"ledgerd/types"
)

func TestSaveBlockIndexesItsTransactions(t *testing.T) {
	s := New(nil)
	block := types.Block{
		Index: 0,
		Transactions: []types.Transaction{
			{To: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Amount: 100},
		},
		Hash: "deadbeef",
	}
	if err := s.SaveBlock(block); err != nil {
		t.Fatalf("SaveBlock: %v", err)
	}

	got, ok, err := s.GetBlock(0)
	if err != nil || !ok {
		t.Fatalf("GetBlock: %v, ok=%v", err, ok)
	}
	if got.Hash != "deadbeef" {
		t.Fatalf("expected hash deadbeef, got %s", got.Hash)
	}

	txs, err := s.GetTransactionsByBlock(0)
	if err != nil {
		t.Fatalf("GetTransactionsByBlock: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 indexed transaction, got %d", len(txs))
	}
}

func TestGetAllBlocksReturnsAscendingIndexOrder(t *testing.T) {
	s := New(nil)
	for _, idx := range []int64{2, 0, 1} {
		if err := s.SaveBlock(types.Block{Index: idx}); err != nil {
			t.Fatalf("SaveBlock(%d): %v", idx, err)
		}
	}
	blocks, err := s.GetAllBlocks()
	if err != nil {
		t.Fatalf("GetAllBlocks: %v", err)
	}
	for i, b := range blocks {
		if b.Index != int64(i) {
			t.Fatalf("expected ascending order, got index %d at position %d", b.Index, i)
		}
	}
}

func TestPendingTransactionsLifecycle(t *testing.T) {
	s := New(nil)
	tx, err := s.SaveTransaction(types.Transaction{To: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Amount: 5}, nil)
	if err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected SaveTransaction to assign an ID")
	}

	pending, err := s.GetPendingTransactions()
	if err != nil {
		t.Fatalf("GetPendingTransactions: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", len(pending))
	}

	if err := s.ClearPendingTransactions(); err != nil {
		t.Fatalf("ClearPendingTransactions: %v", err)
	}
	pending, err = s.GetPendingTransactions()
	if err != nil {
		t.Fatalf("GetPendingTransactions (after clear): %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected an empty mempool after clearing, got %d", len(pending))
	}
}

func TestDeleteBlockRemovesItsTransactions(t *testing.T) {
	s := New(nil)
	block := types.Block{
		Index: 0,
		Transactions: []types.Transaction{
			{ID: "tx1", To: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Amount: 1},
		},
	}
	if err := s.SaveBlock(block); err != nil {
		t.Fatalf("SaveBlock: %v", err)
	}
	if err := s.DeleteBlock(0); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	if _, ok, _ := s.GetBlock(0); ok {
		t.Fatal("expected the block to be gone after DeleteBlock")
	}
	txs, err := s.GetTransactionsByBlock(0)
	if err != nil {
		t.Fatalf("GetTransactionsByBlock: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected the block's transactions to be removed too, got %d", len(txs))
	}
}

func TestWalletAndContractRoundTrip(t *testing.T) {
	s := New(nil)
	addr := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := s.SaveWallet(modules.WalletRecord{Address: addr}); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if _, ok, err := s.GetWallet(addr); err != nil || !ok {
		t.Fatalf("GetWallet: %v, ok=%v", err, ok)
	}

	blob := modules.ContractBlob{Address: addr, Code: "contract stub"}
	if err := s.SaveSmartContract(blob); err != nil {
		t.Fatalf("SaveSmartContract: %v", err)
	}
	all, err := s.GetAllSmartContracts()
	if err != nil {
		t.Fatalf("GetAllSmartContracts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 stored contract, got %d", len(all))
	}
}

func TestMinerHistoryAccumulates(t *testing.T) {
	s := New(nil)
	if err := s.SaveMinerBlockHistory(modules.MinerHistoryEntry{MinerAddress: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", BlockIndex: 0}); err != nil {
		t.Fatalf("SaveMinerBlockHistory: %v", err)
	}
	history, err := s.GetMinerBlockHistory()
	if err != nil {
		t.Fatalf("GetMinerBlockHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
}
