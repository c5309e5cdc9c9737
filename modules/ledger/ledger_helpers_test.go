package ledger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"ledgerd/crypto"
	"ledgerd/modules"
	"ledgerd/modules/storage/memstore"
	"ledgerd/types"
)

// newTestEngine builds an Engine backed by a fresh in-memory store, failing
// the test immediately on any construction error.
func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	store := memstore.New(zap.NewNop())
	e, err := New(context.Background(), store, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// testWallet is a test-only keypair bundle that knows its own derived
// address and can sign transfers from it.
type testWallet struct {
	sk      crypto.SecretKey
	pk      crypto.PublicKey
	Address string
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	sk, pk, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	addr, err := crypto.DeriveAddress(pk, crypto.SchemeStandard)
	if err != nil {
		t.Fatalf("DeriveAddress: %v", err)
	}
	return testWallet{sk: sk, pk: pk, Address: addr.String()}
}

func (w testWallet) submitRequest(t *testing.T, to, amountStr string, timestamp int64) modules.SubmitRequest {
	t.Helper()
	amt, err := types.NewAmount(amountStr)
	if err != nil {
		t.Fatalf("NewAmount: %v", err)
	}
	hash, err := types.HashForSigning(w.Address, to, amt, timestamp, types.TxData{})
	if err != nil {
		t.Fatalf("HashForSigning: %v", err)
	}
	sig, err := crypto.SignHash(hash, w.sk)
	if err != nil {
		t.Fatalf("SignHash: %v", err)
	}
	r, s, err := sig.SplitDER()
	if err != nil {
		t.Fatalf("SplitDER: %v", err)
	}
	return modules.SubmitRequest{
		From:      w.Address,
		To:        to,
		Amount:    amt,
		Timestamp: timestamp,
		Signature: types.Signature{R: r, S: s, PublicKey: hexEncode(w.pk)},
	}
}

func hexEncode(pk crypto.PublicKey) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(pk)*2)
	for i, b := range pk {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// fundedConfig returns a Config whose founder premine allocation credits
// wallet with amount, so it can immediately sign spendable transfers.
func fundedConfig(wallet testWallet, amount string) Config {
	cfg := DefaultConfig()
	amt, _ := types.NewAmount(amount)
	cfg.Premine = types.DefaultPremineAllocations(
		wallet.Address, amt,
		"", 0,
		"", 0,
	)
	return cfg
}
