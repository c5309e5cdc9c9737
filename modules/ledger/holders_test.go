package ledger

import (
	"context"
	"testing"

	"ledgerd/types"
)

func TestGetHoldersListsNonzeroBalancesOnly(t *testing.T) {
	wallet := newTestWallet(t)
	e := newTestEngine(t, fundedConfig(wallet, "1000"))

	to := "0xdddddddddddddddddddddddddddddddddddddddd"
	req := wallet.submitRequest(t, to, "1000", 1000) // spend the entire premine balance
	if _, err := e.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	holders, err := e.GetHolders()
	if err != nil {
		t.Fatalf("GetHolders: %v", err)
	}

	var sawSender, sawRecipient bool
	for _, h := range holders {
		if h.Address == wallet.Address {
			sawSender = true
		}
		if h.Address == to {
			sawRecipient = true
			want, _ := types.NewAmount("1000")
			if h.Balance != want {
				t.Fatalf("expected recipient balance %s, got %s", want, h.Balance)
			}
		}
	}
	if sawSender {
		t.Fatal("expected the fully-spent sender to be excluded from holders")
	}
	if !sawRecipient {
		t.Fatal("expected the recipient to appear in holders")
	}
}
