package formance

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"vault-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestVaultAccount(t *testing.T) {
	if got := vaultAccount("alice"); got != "vaults:alice" {
		t.Errorf("vaultAccount(alice) = %q", got)
	}
}

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"VLT", "VLT/0"},
		{"USDC", "USDC/0"},
		{"USDC/6", "USDC/6"}, // explicit precision kept as-is
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isConflictError(errors.New("plain")) {
		t.Error("plain error should not be a conflict error")
	}
}

func TestParseMetaField(t *testing.T) {
	meta := map[string]string{"op_index": "42", "bad": "not-a-number"}

	v, err := parseMetaField(meta, "op_index")
	if err != nil || v != 42 {
		t.Errorf("parseMetaField(op_index) = %d, %v", v, err)
	}
	if _, err := parseMetaField(meta, "missing"); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := parseMetaField(meta, "bad"); err == nil {
		t.Error("expected error for unparseable value")
	}
}

func TestEntryFromTransaction(t *testing.T) {
	ref := "dep-1"
	ts := time.Now()
	tx := shared.V2Transaction{
		ID:        big.NewInt(7),
		Reference: &ref,
		Timestamp: ts,
		Metadata: map[string]string{
			"event_type":    "deposit",
			"owner":         "alice",
			"op_index":      "3",
			"balance_after": "130",
			"total_after":   "250",
		},
		Postings: []shared.V2Posting{
			{Source: "world", Destination: "vaults:alice", Amount: big.NewInt(30), Asset: "VLT/0"},
		},
	}

	entry, err := entryFromTransaction(tx)
	if err != nil {
		t.Fatalf("entryFromTransaction failed: %v", err)
	}
	if entry.Owner != "alice" || entry.Kind != store.KindDeposit {
		t.Errorf("unexpected entry identity: %+v", entry)
	}
	if entry.Amount != 30 || entry.BalanceAfter != 130 || entry.TotalAfter != 250 || entry.OpIndex != 3 {
		t.Errorf("unexpected entry values: %+v", entry)
	}
	if entry.Reference != "dep-1" {
		t.Errorf("unexpected reference %q", entry.Reference)
	}
}

func testDepositTx(id int64, owner, opIndex string, amount int64) shared.V2Transaction {
	ref := "dep-" + opIndex
	return shared.V2Transaction{
		ID:        big.NewInt(id),
		Reference: &ref,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"event_type":    "deposit",
			"owner":         owner,
			"op_index":      opIndex,
			"balance_after": "100",
			"total_after":   "100",
		},
		Postings: []shared.V2Posting{
			{Source: "world", Destination: "vaults:" + owner, Amount: big.NewInt(amount), Asset: "VLT/0"},
		},
	}
}

func TestHistoryCollector_OffsetAndLimitSpanPages(t *testing.T) {
	collector := &historyCollector{limit: 3, offset: 2}

	// Unparseable transactions never count against the offset or the limit.
	page1 := []shared.V2Transaction{
		testDepositTx(1, "alice", "1", 10),
		testDepositTx(2, "alice", "2", 10),
		{ID: big.NewInt(99), Metadata: map[string]string{"event_type": "conversion"}},
		testDepositTx(3, "alice", "3", 10),
	}
	page2 := []shared.V2Transaction{
		testDepositTx(4, "alice", "4", 10),
		testDepositTx(5, "alice", "5", 10),
		testDepositTx(6, "alice", "6", 10),
	}

	if collector.collect(page1) {
		t.Fatal("collector reported done before reaching the limit")
	}
	if !collector.collect(page2) {
		t.Fatal("collector did not report done at the limit")
	}

	if len(collector.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(collector.entries))
	}
	wantIds := []string{"3", "4", "5"}
	for i, want := range wantIds {
		if collector.entries[i].Id != want {
			t.Errorf("entry %d: expected id %s, got %s", i, want, collector.entries[i].Id)
		}
	}
}

func TestEntryFromTransaction_RejectsUnknownEventType(t *testing.T) {
	tx := shared.V2Transaction{
		ID:       big.NewInt(8),
		Metadata: map[string]string{"event_type": "conversion"},
	}
	if _, err := entryFromTransaction(tx); err == nil {
		t.Error("expected error for unknown event type")
	}
}
