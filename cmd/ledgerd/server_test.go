package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func newTestDaemon(t *testing.T) (*Server, Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.APIAddr = "127.0.0.1:0"
	cfg.SQLitePath = dir + "/ledgerd.db"
	cfg.LogFile = dir + "/ledgerd.log"
	cfg.AllowMemstoreFallback = true

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() {
		srv.Close()
	})
	return srv, cfg
}

func TestNewServerBuildsAReadyEngine(t *testing.T) {
	srv, _ := newTestDaemon(t)
	if srv.engine == nil {
		t.Fatal("expected a constructed ledger engine")
	}
	health := srv.engine.Health()
	if !health.Ready {
		t.Fatalf("expected engine to be ready after successful construction, got %+v", health)
	}
}

func TestServeAndCloseRoundTrip(t *testing.T) {
	srv, _ := newTestDaemon(t)

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve()
	}()

	// Give Serve a moment to start listening before closing it down.
	time.Sleep(50 * time.Millisecond)
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned an error after Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestBuildPremineParsesAllThreeAllocations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PremineFounder = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	cfg.PremineFounderAmount = "100"
	cfg.PremineTreasury = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	cfg.PremineTreasuryAmount = "200"

	allocs, err := buildPremine(cfg)
	if err != nil {
		t.Fatalf("buildPremine: %v", err)
	}
	if len(allocs) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocs))
	}
	if allocs[0].Address != cfg.PremineFounder {
		t.Fatalf("expected founder address %s, got %s", cfg.PremineFounder, allocs[0].Address)
	}
	if allocs[2].Address != "" {
		t.Fatalf("expected liquidity pool address to default empty, got %q", allocs[2].Address)
	}
}

func TestBuildPremineRejectsInvalidAmount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PremineFounder = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	cfg.PremineFounderAmount = "not-a-number"

	if _, err := buildPremine(cfg); err == nil {
		t.Fatal("expected an error for an invalid premine amount")
	}
}

func TestDaemonServesHealthOverTCP(t *testing.T) {
	srv, _ := newTestDaemon(t)
	go srv.Serve()
	defer srv.Close()

	addr := srv.http.Addr()
	deadline := time.Now().Add(2 * time.Second)
	var resp *http.Response
	var err error
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/api/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	var health struct {
		Status string
		Ready  bool
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !health.Ready || health.Status != "ok" {
		t.Fatalf("expected ready/ok health, got %+v", health)
	}
}
