package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSelectFallsBackToMemstoreWithNoConfig(t *testing.T) {
	sel := Select(context.Background(), Config{}, nil)
	if sel.Tier != "memstore" {
		t.Fatalf("expected memstore tier with no config, got %s", sel.Tier)
	}
	defer sel.Backend.Close()
}

func TestSelectChoosesEmbeddedSQLStoreWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerd.db")
	sel := Select(context.Background(), Config{SQLitePath: path}, nil)
	if sel.Tier != "sqlstore" {
		t.Fatalf("expected sqlstore tier, got %s", sel.Tier)
	}
	defer sel.Backend.Close()
}

func TestMustSelectRejectsMemstoreWhenDisallowed(t *testing.T) {
	_, err := MustSelect(context.Background(), Config{}, nil, false)
	if err == nil {
		t.Fatal("expected an error when the selection falls through to memstore and it is disallowed")
	}
}

func TestMustSelectAllowsMemstoreWhenPermitted(t *testing.T) {
	sel, err := MustSelect(context.Background(), Config{}, nil, true)
	if err != nil {
		t.Fatalf("MustSelect: %v", err)
	}
	defer sel.Backend.Close()
	if sel.Tier != "memstore" {
		t.Fatalf("expected memstore tier, got %s", sel.Tier)
	}
}
