package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"ledgerd/crypto"
	"ledgerd/modules/ledger"
	"ledgerd/modules/storage/memstore"
	"ledgerd/types"
)

const testAPIKey = "test-api-key"
const testBridgeKey = "test-bridge-key"

// apiTester bundles a running httptest.Server over an API backed by a fresh
// in-memory ledger engine, for handler-level integration tests.
type apiTester struct {
	t      *testing.T
	engine *ledger.Engine
	srv    *httptest.Server
}

func newAPITester(t *testing.T, cfg ledger.Config) *apiTester {
	t.Helper()
	store := memstore.New(zap.NewNop())
	engine, err := ledger.New(context.Background(), store, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	a := NewAPI(engine, testAPIKey, testBridgeKey)
	srv := httptest.NewServer(a.Handler)

	at := &apiTester{t: t, engine: engine, srv: srv}
	t.Cleanup(func() {
		srv.Close()
	})
	return at
}

func (at *apiTester) get(path string) *http.Response {
	at.t.Helper()
	req, err := http.NewRequest(http.MethodGet, at.srv.URL+path, nil)
	if err != nil {
		at.t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("x-api-key", testAPIKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		at.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (at *apiTester) post(path string, body interface{}, headers map[string]string) *http.Response {
	at.t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		at.t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, at.srv.URL+path, bytes.NewReader(raw))
	if err != nil {
		at.t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("x-api-key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		at.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// signedWallet is a test-only keypair bundle that knows how to build signed
// submitTransactionRequest bodies for the address it derives.
type signedWallet struct {
	sk      crypto.SecretKey
	pk      crypto.PublicKey
	Address string
}

func newSignedWallet(t *testing.T) signedWallet {
	t.Helper()
	sk, pk, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	addr, err := crypto.DeriveAddress(pk, crypto.SchemeStandard)
	if err != nil {
		t.Fatalf("DeriveAddress: %v", err)
	}
	return signedWallet{sk: sk, pk: pk, Address: addr.String()}
}

func (w signedWallet) sign(t *testing.T, to, amount string, timestamp int64) submitTransactionRequest {
	t.Helper()
	amt, err := types.NewAmount(amount)
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
	return submitTransactionRequest{
		From:      w.Address,
		To:        to,
		Amount:    amount,
		Timestamp: timestamp,
		Signature: types.Signature{R: r, S: s, PublicKey: hex.EncodeToString(w.pk[:])},
	}
}
