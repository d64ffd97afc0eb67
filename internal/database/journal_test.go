package database

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestJournal(t *testing.T) (*Service, func()) {
	// A single connection keeps every query on the same in-memory database.
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}

	return service, cleanup
}

func TestRecordDeposit_CreatesEntryAndMirror(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	err := service.RecordDeposit(ctx, store.RecordParams{
		Owner:        "alice",
		Amount:       100,
		OpIndex:      1,
		BalanceAfter: 100,
		TotalAfter:   100,
		Reference:    "dep-1",
	})
	if err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}

	entries, err := service.History(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Kind != store.KindDeposit {
		t.Errorf("Expected kind %s, got %s", store.KindDeposit, entry.Kind)
	}
	if entry.Amount != 100 || entry.BalanceAfter != 100 || entry.TotalAfter != 100 {
		t.Errorf("Unexpected entry values: %+v", entry)
	}
	if entry.OpIndex != 1 {
		t.Errorf("Expected op index 1, got %d", entry.OpIndex)
	}
	if entry.Reference != "dep-1" {
		t.Errorf("Expected reference dep-1, got %s", entry.Reference)
	}

	state, err := service.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.Balances["alice"] != 100 {
		t.Errorf("Expected mirrored balance 100, got %d", state.Balances["alice"])
	}
}

func TestRecordWithdrawal_UpdatesMirror(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.RecordDeposit(ctx, store.RecordParams{
		Owner: "alice", Amount: 100, OpIndex: 1, BalanceAfter: 100, TotalAfter: 100, Reference: "dep-1",
	}); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}

	if err := service.RecordWithdrawal(ctx, store.RecordParams{
		Owner: "alice", Amount: 40, OpIndex: 1, BalanceAfter: 60, TotalAfter: 60, Reference: "wd-1",
	}); err != nil {
		t.Fatalf("RecordWithdrawal failed: %v", err)
	}

	state, err := service.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.Balances["alice"] != 60 {
		t.Errorf("Expected mirrored balance 60, got %d", state.Balances["alice"])
	}
	if state.TotalDeposited != 60 {
		t.Errorf("Expected total 60, got %d", state.TotalDeposited)
	}
}

func TestRecordEntry_DuplicateReference(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	params := store.RecordParams{
		Owner: "alice", Amount: 10, OpIndex: 1, BalanceAfter: 10, TotalAfter: 10, Reference: "dup-ref",
	}

	if err := service.RecordDeposit(ctx, params); err != nil {
		t.Fatalf("First RecordDeposit failed: %v", err)
	}

	err := service.RecordDeposit(ctx, params)
	if !errors.Is(err, store.ErrDuplicateEntry) {
		t.Fatalf("Expected ErrDuplicateEntry, got %v", err)
	}

	// The duplicate must not have touched the mirror.
	state, err := service.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.Balances["alice"] != 10 {
		t.Errorf("Duplicate changed the mirror: %d", state.Balances["alice"])
	}
}

func TestRecordEntry_EmptyReference(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	err := service.RecordDeposit(context.Background(), store.RecordParams{
		Owner: "alice", Amount: 10, OpIndex: 1, BalanceAfter: 10, TotalAfter: 10,
	})
	if err == nil {
		t.Fatal("Expected error for empty reference, got nil")
	}
}

func TestLoadState_AggregatesOwnersAndCounters(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	records := []struct {
		kind   string
		params store.RecordParams
	}{
		{store.KindDeposit, store.RecordParams{Owner: "alice", Amount: 100, OpIndex: 1, BalanceAfter: 100, TotalAfter: 100, Reference: "d1"}},
		{store.KindDeposit, store.RecordParams{Owner: "bob", Amount: 50, OpIndex: 2, BalanceAfter: 50, TotalAfter: 150, Reference: "d2"}},
		{store.KindWithdrawal, store.RecordParams{Owner: "alice", Amount: 30, OpIndex: 1, BalanceAfter: 70, TotalAfter: 120, Reference: "w1"}},
		{store.KindDeposit, store.RecordParams{Owner: "carol", Amount: 5, OpIndex: 3, BalanceAfter: 5, TotalAfter: 125, Reference: "d3"}},
		{store.KindWithdrawal, store.RecordParams{Owner: "carol", Amount: 5, OpIndex: 2, BalanceAfter: 0, TotalAfter: 120, Reference: "w2"}},
	}
	for _, rec := range records {
		var err error
		if rec.kind == store.KindDeposit {
			err = service.RecordDeposit(ctx, rec.params)
		} else {
			err = service.RecordWithdrawal(ctx, rec.params)
		}
		if err != nil {
			t.Fatalf("Record %s failed: %v", rec.params.Reference, err)
		}
	}

	state, err := service.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if state.Balances["alice"] != 70 || state.Balances["bob"] != 50 {
		t.Errorf("Unexpected balances: %+v", state.Balances)
	}
	if _, ok := state.Balances["carol"]; ok {
		t.Error("Zero balance should be omitted from state")
	}
	if state.TotalDeposited != 120 {
		t.Errorf("Expected total 120, got %d", state.TotalDeposited)
	}
	if state.DepositCount != 3 {
		t.Errorf("Expected deposit count 3, got %d", state.DepositCount)
	}
	if state.WithdrawalCount != 2 {
		t.Errorf("Expected withdrawal count 2, got %d", state.WithdrawalCount)
	}
}

func TestReconcileOwner(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.RecordDeposit(ctx, store.RecordParams{
		Owner: "alice", Amount: 100, OpIndex: 1, BalanceAfter: 100, TotalAfter: 100, Reference: "d1",
	}); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}
	if err := service.RecordWithdrawal(ctx, store.RecordParams{
		Owner: "alice", Amount: 25, OpIndex: 1, BalanceAfter: 75, TotalAfter: 75, Reference: "w1",
	}); err != nil {
		t.Fatalf("RecordWithdrawal failed: %v", err)
	}

	if err := service.ReconcileOwner(ctx, "alice"); err != nil {
		t.Errorf("ReconcileOwner failed on consistent state: %v", err)
	}

	// An owner with no entries reconciles to zero.
	if err := service.ReconcileOwner(ctx, "nobody"); err != nil {
		t.Errorf("ReconcileOwner failed on empty owner: %v", err)
	}
}

func TestReconcileOwner_DetectsMismatch(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.RecordDeposit(ctx, store.RecordParams{
		Owner: "alice", Amount: 100, OpIndex: 1, BalanceAfter: 100, TotalAfter: 100, Reference: "d1",
	}); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}

	// Corrupt the mirror behind the journal's back.
	if _, err := service.db.Exec(`UPDATE vault_balances SET balance = '99' WHERE owner = 'alice'`); err != nil {
		t.Fatalf("Failed to corrupt mirror: %v", err)
	}

	err := service.ReconcileOwner(ctx, "alice")
	if !errors.Is(err, store.ErrReconcileMismatch) {
		t.Fatalf("Expected ErrReconcileMismatch, got %v", err)
	}
}

func TestHistory_PaginationAndOrder(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	total := uint64(0)
	for i := 1; i <= 5; i++ {
		total += uint64(i * 10)
		err := service.RecordDeposit(ctx, store.RecordParams{
			Owner:        "alice",
			Amount:       uint64(i * 10),
			OpIndex:      uint64(i),
			BalanceAfter: total,
			TotalAfter:   total,
			Reference:    "d" + string(rune('0'+i)),
		})
		if err != nil {
			t.Fatalf("RecordDeposit %d failed: %v", i, err)
		}
	}

	page, err := service.History(ctx, "alice", 2, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(page))
	}
	// Newest first.
	if page[0].OpIndex != 5 || page[1].OpIndex != 4 {
		t.Errorf("Unexpected order: %d, %d", page[0].OpIndex, page[1].OpIndex)
	}

	page, err = service.History(ctx, "alice", 2, 2)
	if err != nil {
		t.Fatalf("History with offset failed: %v", err)
	}
	if len(page) != 2 || page[0].OpIndex != 3 {
		t.Errorf("Unexpected offset page: %+v", page)
	}

	// Empty owner selects all entries.
	all, err := service.History(ctx, "", 100, 0)
	if err != nil {
		t.Fatalf("History for all owners failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 entries across owners, got %d", len(all))
	}
}

func TestAmountRoundTrip_FullUint64Range(t *testing.T) {
	service, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	big := uint64(math.MaxUint64)
	if err := service.RecordDeposit(ctx, store.RecordParams{
		Owner: "whale", Amount: big, OpIndex: 1, BalanceAfter: big, TotalAfter: big, Reference: "d1",
	}); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}

	entries, err := service.History(ctx, "whale", 1, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if entries[0].Amount != big || entries[0].BalanceAfter != big {
		t.Errorf("Amount did not survive round trip: %d", entries[0].Amount)
	}

	state, err := service.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.Balances["whale"] != big {
		t.Errorf("Mirror did not survive round trip: %d", state.Balances["whale"])
	}
}
