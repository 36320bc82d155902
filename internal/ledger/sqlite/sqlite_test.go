package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mv(id, owner string, kind core.Kind, category string, cents int64, at time.Time) core.MoneyMovement {
	return core.NewMovement(id, owner, kind, category, core.Money{Cents: cents}, at)
}

func seedTestData(t *testing.T, store *Store) {
	t.Helper()
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	err := store.Seed(context.Background(),
		mv("m1", "alice", core.KindExpense, "groceries", 2500, base),
		mv("m2", "alice", core.KindExpense, "groceries", 1500, base.Add(26*time.Hour)),
		mv("m3", "alice", core.KindExpense, "transport", 4000, base.Add(3*time.Hour)),
		mv("m4", "alice", core.KindIncome, "", 100000, base.Add(time.Hour)),
		mv("m5", "bob", core.KindExpense, "groceries", 9999, base),
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func marchWindow() core.Window {
	return core.Window{
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateByKind(t *testing.T) {
	store := openTestStore(t)
	seedTestData(t, store)

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:  ledger.Filter{Window: marchWindow()},
		GroupBy: ledger.GroupByKind,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "expense" || buckets[0].Total.Cents != 8000 || buckets[0].Count != 3 {
		t.Fatalf("expense bucket: %+v", buckets[0])
	}
	if buckets[1].Key != "income" || buckets[1].Total.Cents != 100000 {
		t.Fatalf("income bucket: %+v", buckets[1])
	}
}

func TestAggregateByDateSortedByTotal(t *testing.T) {
	store := openTestStore(t)
	seedTestData(t, store)

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:      ledger.Filter{Kind: core.KindExpense, Window: marchWindow()},
		GroupBy:     ledger.GroupByDate,
		SortByTotal: true,
		Limit:       1,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	// March 10 carries 2500 + 4000; March 11 only 1500.
	if buckets[0].Key != "2025-03-10" || buckets[0].Total.Cents != 6500 {
		t.Fatalf("top day: %+v", buckets[0])
	}
}

func TestAggregateByHourUsesStoredHour(t *testing.T) {
	store := openTestStore(t)
	seedTestData(t, store)

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:      ledger.Filter{Kind: core.KindExpense, Window: marchWindow()},
		GroupBy:     ledger.GroupByHour,
		SortByTotal: true,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	// m3 at 12:00 (4000), m1 at 09:00 (2500), m2 at 11:00 (1500).
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "12" || buckets[0].Total.Cents != 4000 {
		t.Fatalf("top hour: %+v", buckets[0])
	}
}

func TestAggregateByWeekday(t *testing.T) {
	store := openTestStore(t)
	// 2025-03-16 is a Sunday.
	sunday := time.Date(2025, time.March, 16, 11, 0, 0, 0, time.UTC)
	err := store.Seed(context.Background(),
		mv("w1", "alice", core.KindExpense, "a", 700, sunday),
		mv("w2", "alice", core.KindExpense, "a", 300, sunday.Add(48*time.Hour)),
		mv("w3", "alice", core.KindExpense, "a", 100, sunday.AddDate(0, 0, 7)),
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:  ledger.Filter{Kind: core.KindExpense},
		GroupBy: ledger.GroupByWeekday,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	// Both Sundays fold into the same 0 bucket.
	if buckets[0].Key != "0" || buckets[0].Total.Cents != 800 || buckets[0].Count != 2 {
		t.Fatalf("sunday bucket: %+v", buckets[0])
	}
	if buckets[1].Key != "2" || buckets[1].Total.Cents != 300 {
		t.Fatalf("tuesday bucket: %+v", buckets[1])
	}
}

func TestAggregateTieBreaksOnKey(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	err := store.Seed(context.Background(),
		mv("t1", "alice", core.KindExpense, "zebra", 1000, base),
		mv("t2", "alice", core.KindExpense, "apple", 1000, base),
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:      ledger.Filter{Kind: core.KindExpense},
		GroupBy:     ledger.GroupByCategory,
		SortByTotal: true,
		Limit:       1,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if buckets[0].Key != "apple" {
		t.Fatalf("tie must resolve to the smaller key, got %q", buckets[0].Key)
	}
}

func TestAggregateWindowIsHalfOpen(t *testing.T) {
	store := openTestStore(t)
	end := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	err := store.Seed(context.Background(),
		mv("h1", "alice", core.KindExpense, "a", 100, end.Add(-time.Second)),
		mv("h2", "alice", core.KindExpense, "a", 900, end),
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	buckets, err := store.Aggregate(context.Background(), "alice", ledger.Query{
		Filter:  ledger.Filter{Kind: core.KindExpense, Window: core.Window{Start: end.AddDate(0, -1, 0), End: end}},
		GroupBy: ledger.GroupByCategory,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 1 || buckets[0].Total.Cents != 100 {
		t.Fatalf("movement at the end bound must be excluded: %+v", buckets)
	}
}

func TestAggregateRejectsEmptyOwner(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Aggregate(context.Background(), "", ledger.Query{GroupBy: ledger.GroupByKind})
	if !errors.Is(err, ledger.ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
}

func TestCount(t *testing.T) {
	store := openTestStore(t)
	seedTestData(t, store)

	n, err := store.Count(context.Background(), "alice", ledger.Filter{Window: marchWindow()})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}
}

func TestListNewestFirstWithPagination(t *testing.T) {
	store := openTestStore(t)
	seedTestData(t, store)

	page1, err := store.List(context.Background(), "alice", ledger.Filter{Window: marchWindow()}, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "m2" || page1[1].ID != "m3" {
		t.Fatalf("unexpected first page: %+v", page1)
	}

	page2, err := store.List(context.Background(), "alice", ledger.Filter{Window: marchWindow()}, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page2) != 2 || page2[0].ID != "m4" || page2[1].ID != "m1" {
		t.Fatalf("unexpected second page: %+v", page2)
	}
}

func TestListRoundTripsFields(t *testing.T) {
	store := openTestStore(t)
	at := time.Date(2025, time.March, 10, 18, 45, 12, 0, time.UTC)
	want := mv("r1", "alice", core.KindExpense, "dining", 3200, at)
	if err := store.Seed(context.Background(), want); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := store.List(context.Background(), "alice", ledger.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(got))
	}
	m := got[0]
	if m.ID != "r1" || m.Kind != core.KindExpense || m.Category != "dining" {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if m.Amount.Cents != 3200 {
		t.Fatalf("amount: %d", m.Amount.Cents)
	}
	if !m.OccurredAt.Equal(at) {
		t.Fatalf("occurred_at: %v", m.OccurredAt)
	}
	if m.HourOfDay != 18 {
		t.Fatalf("hour_of_day: %d", m.HourOfDay)
	}
}

func TestSeedRejectsInvalidMovement(t *testing.T) {
	store := openTestStore(t)
	bad := core.MoneyMovement{ID: "x", OwnerID: "alice", Kind: "transfer"}
	if err := store.Seed(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}
