package ledger

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// setupTestDB connects to a dedicated test database and wipes the ledger
// tables.  Set TEST_DATABASE_DSN (a go-sql-driver DSN with parseTime=true)
// to run these tests; without it they are skipped so a live database is
// never touched.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set — skipping integration test")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping test database: %v", err)
	}
	for _, stmt := range []string{
		`SET FOREIGN_KEY_CHECKS = 0`,
		`TRUNCATE TABLE stock_history`,
		`TRUNCATE TABLE stock`,
		`TRUNCATE TABLE dispatches`,
		`TRUNCATE TABLE bookings`,
		`TRUNCATE TABLE bill_sequence`,
		`TRUNCATE TABLE products`,
		`TRUNCATE TABLE brands`,
		`TRUNCATE TABLE product_types`,
		`TRUNCATE TABLE godowns`,
		`SET FOREIGN_KEY_CHECKS = 1`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("reset test database: %v", err)
		}
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db       *sql.DB
	coord    *Coordinator
	alloc    *Allocator
	stocks   *repository.StockRepo
	history  *repository.HistoryRepo
	bookings *repository.BookingRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	stocks := repository.NewStockRepo(db)
	history := repository.NewHistoryRepo(db)
	bookings := repository.NewBookingRepo(db)
	brands := repository.NewBrandRepo(db)
	return &fixture{
		db:       db,
		coord:    NewCoordinator(db, stocks, history, bookings),
		alloc:    NewAllocator(db, stocks, history, brands),
		stocks:   stocks,
		history:  history,
		bookings: bookings,
	}
}

func (f *fixture) createGodown(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := repository.NewGodownRepo(f.db).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create godown: %v", err)
	}
	return id
}

// seedStock allocates cases through the real allocator so the journal
// invariant holds for the seeded record too.
func (f *fixture) seedStock(t *testing.T, godownID uint64, name string, perCase, cases int64) uint64 {
	t.Helper()
	stockID, err := f.alloc.AddToGodown(context.Background(), godownID, "crackers", name, "standard", perCase, cases)
	if err != nil {
		t.Fatalf("seed stock %s: %v", name, err)
	}
	return stockID
}

func (f *fixture) currentCases(t *testing.T, stockID uint64) int64 {
	t.Helper()
	s, err := f.stocks.GetByID(context.Background(), stockID)
	if err != nil {
		t.Fatalf("get stock %d: %v", stockID, err)
	}
	return s.CurrentCases
}

func (f *fixture) assertJournalConsistent(t *testing.T, stockID uint64) {
	t.Helper()
	ctx := context.Background()
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()
	s, err := f.stocks.GetForUpdateTx(ctx, tx, stockID)
	if err != nil {
		t.Fatalf("lock stock %d: %v", stockID, err)
	}
	added, taken, err := f.history.SumByRecordTx(ctx, tx, stockID)
	if err != nil {
		t.Fatalf("sum journal: %v", err)
	}
	if s.CurrentCases != added-taken {
		t.Errorf("stock %d: current_cases=%d but journal added=%d taken=%d", stockID, s.CurrentCases, added, taken)
	}
}

func TestReserveMultiLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 20)
	s2 := f.seedStock(t, g, "sparklers", 12, 15)

	meta := validMeta()
	res, err := f.coord.Reserve(ctx, meta, []ReservationLine{
		{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 3, RatePerBox: decimal.NewFromInt(50)},
		{StockID: s2, ProductName: "sparklers", Brand: "standard", Cases: 5, RatePerBox: decimal.NewFromInt(20)},
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.BillNumber == "" || res.BookingID == 0 {
		t.Errorf("missing booking identity: %+v", res)
	}
	// 3*10*50 + 5*12*20 = 1500 + 1200 = 2700
	if !res.Totals.GrandTotal.Equal(decimal.NewFromInt(2700)) {
		t.Errorf("GrandTotal = %s, want 2700", res.Totals.GrandTotal)
	}
	if got := f.currentCases(t, s1); got != 17 {
		t.Errorf("stock %d cases = %d, want 17", s1, got)
	}
	if got := f.currentCases(t, s2); got != 10 {
		t.Errorf("stock %d cases = %d, want 10", s2, got)
	}
	f.assertJournalConsistent(t, s1)
	f.assertJournalConsistent(t, s2)

	b, err := f.bookings.GetByID(ctx, res.BookingID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if b.BillNumber != res.BillNumber {
		t.Errorf("bill number %s, want %s", b.BillNumber, res.BillNumber)
	}
}

func TestReserveSameRecordTwice(t *testing.T) {
	// Two lines against the same record must validate against the
	// cumulative decrement, not each against the starting quantity.
	f := newFixture(t)
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 10)

	_, err := f.coord.Reserve(context.Background(), validMeta(), []ReservationLine{
		{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 7, RatePerBox: decimal.NewFromInt(50)},
		{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 7, RatePerBox: decimal.NewFromInt(50)},
	})
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if ise.Available != 3 {
		t.Errorf("Available = %d, want 3 (after first line's decrement)", ise.Available)
	}
	// The whole reservation rolled back, first line included.
	if got := f.currentCases(t, s1); got != 10 {
		t.Errorf("stock cases = %d, want 10 after rollback", got)
	}
	f.assertJournalConsistent(t, s1)
}

func TestReserveInsufficientRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 20)
	s2 := f.seedStock(t, g, "sparklers", 12, 2)

	_, err := f.coord.Reserve(ctx, validMeta(), []ReservationLine{
		{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 5, RatePerBox: decimal.NewFromInt(50)},
		{StockID: s2, ProductName: "sparklers", Brand: "standard", Cases: 99, RatePerBox: decimal.NewFromInt(20)},
	})
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if got := f.currentCases(t, s1); got != 20 {
		t.Errorf("first line's decrement survived rollback: cases = %d, want 20", got)
	}
	bookings, err := f.bookings.List(ctx)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 0 {
		t.Errorf("booking persisted despite rollback: %+v", bookings)
	}
}

func TestReserveConcurrentOversell(t *testing.T) {
	// Two reservations of 7 against 10 cases: exactly one may win.
	f := newFixture(t)
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 10)

	line := ReservationLine{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 7, RatePerBox: decimal.NewFromInt(50)}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coord.Reserve(context.Background(), validMeta(), []ReservationLine{line})
		}(i)
	}
	wg.Wait()

	var wins, insufficient int
	for _, err := range errs {
		var ise *InsufficientStockError
		switch {
		case err == nil:
			wins++
		case errors.As(err, &ise):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || insufficient != 1 {
		t.Errorf("wins=%d insufficient=%d, want exactly one of each", wins, insufficient)
	}
	if got := f.currentCases(t, s1); got != 3 {
		t.Errorf("stock cases = %d, want 3", got)
	}
	f.assertJournalConsistent(t, s1)
}

func TestReserveOppositeLineOrders(t *testing.T) {
	// Lines in opposite orders must not deadlock: locks are acquired in
	// ascending stock-ID order regardless of line order.
	f := newFixture(t)
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 50)
	s2 := f.seedStock(t, g, "sparklers", 12, 50)

	mk := func(a, b uint64) []ReservationLine {
		return []ReservationLine{
			{StockID: a, ProductName: "x", Brand: "standard", Cases: 1, RatePerBox: decimal.NewFromInt(10)},
			{StockID: b, ProductName: "y", Brand: "standard", Cases: 1, RatePerBox: decimal.NewFromInt(10)},
		}
	}
	const rounds = 10
	errCh := make(chan error, rounds*2)
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.coord.Reserve(context.Background(), validMeta(), mk(s1, s2))
			errCh <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.coord.Reserve(context.Background(), validMeta(), mk(s2, s1))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("reservation failed: %v", err)
		}
	}
	if got := f.currentCases(t, s1); got != 50-rounds {
		t.Errorf("stock %d cases = %d, want %d", s1, got, 50-rounds)
	}
	if got := f.currentCases(t, s2); got != 50-rounds {
		t.Errorf("stock %d cases = %d, want %d", s2, got, 50-rounds)
	}
}

func TestAllocateBatchWithSkips(t *testing.T) {
	f := newFixture(t)
	g := f.createGodown(t, "main depot")

	res, err := f.alloc.Allocate(context.Background(), []AllocationEntry{
		{GodownID: g, ProductType: "crackers", ProductName: "flower pots", Brand: "standard", PerCase: 10, CasesAdded: 5},
		{GodownID: g, ProductType: "crackers", ProductName: "rockets", Brand: "standard", PerCase: 6, CasesAdded: -1},
		{GodownID: g, ProductType: "crackers", ProductName: "flower pots", Brand: "standard", PerCase: 10, CasesAdded: 3},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if res.AppliedCount != 2 {
		t.Errorf("AppliedCount = %d, want 2", res.AppliedCount)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Index != 1 {
		t.Errorf("Skipped = %+v, want exactly index 1", res.Skipped)
	}
	// Both applied rows hit the same tuple; the record accumulates.
	if len(res.Applied) != 2 {
		t.Fatalf("Applied = %+v, want 2 rows", res.Applied)
	}
	stockID := res.Applied[0].StockID
	if got := f.currentCases(t, stockID); got != 8 {
		t.Errorf("stock cases = %d, want 8", got)
	}
	f.assertJournalConsistent(t, stockID)
}

func TestTakeAndAddRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 10)

	actor := "manual dispatch"
	rec, err := f.coord.TakeStock(ctx, s1, 4, &actor)
	if err != nil {
		t.Fatalf("TakeStock: %v", err)
	}
	if rec.CurrentCases != 6 || rec.TakenCases != 4 {
		t.Errorf("after take: current=%d taken=%d, want 6 and 4", rec.CurrentCases, rec.TakenCases)
	}

	rec, err = f.alloc.AddToExisting(ctx, s1, 2)
	if err != nil {
		t.Fatalf("AddToExisting: %v", err)
	}
	if rec.CurrentCases != 8 {
		t.Errorf("after add: current=%d, want 8", rec.CurrentCases)
	}
	f.assertJournalConsistent(t, s1)

	// Taking more than available fails cleanly.
	_, err = f.coord.TakeStock(ctx, s1, 9, nil)
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if got := f.currentCases(t, s1); got != 8 {
		t.Errorf("failed take mutated stock: cases = %d, want 8", got)
	}

	entries, err := f.history.ListByRecord(ctx, s1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// seed add + take + add = 3 entries; the failed take left none.
	if len(entries) != 3 {
		t.Errorf("journal entries = %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Action == "taken" && (e.Actor == nil || *e.Actor != actor) {
			t.Errorf("taken entry missing actor: %+v", e)
		}
	}
}

func TestBillNumbersUniqueUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	g := f.createGodown(t, "main depot")
	s1 := f.seedStock(t, g, "flower pots", 10, 100)

	const n = 8
	var wg sync.WaitGroup
	bills := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.coord.Reserve(context.Background(), validMeta(), []ReservationLine{
				{StockID: s1, ProductName: "flower pots", Brand: "standard", Cases: 1, RatePerBox: decimal.NewFromInt(10)},
			})
			if err == nil {
				bills[i] = res.BillNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, b := range bills {
		if b == "" {
			t.Fatal("a reservation failed; all should succeed with ample stock")
		}
		if seen[b] {
			t.Errorf("duplicate bill number %s", b)
		}
		seen[b] = true
	}
}
