package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/domain/user"
	"txaudit/internal/shared/apperr"
)

type fixture struct {
	db         *DB
	users      *UserRepository
	txs        *TransactionRepository
	auditor    *user.User
	transactor *user.User
	other      *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "txaudit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	f := &fixture{db: db, users: NewUserRepository(db), txs: NewTransactionRepository(db)}
	f.auditor = f.createUser(t, "audit_user", user.RoleAuditor)
	f.transactor = f.createUser(t, "transact_user", user.RoleTransactor)
	f.other = f.createUser(t, "other_user", user.RoleTransactor)
	return f
}

func (f *fixture) createUser(t *testing.T, name string, role user.Role) *user.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), user.CreateUserParams{
		Username:     name,
		PasswordHash: "hash-" + name,
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func (f *fixture) insert(t *testing.T, creator int64, amount string, ts time.Time, description *string) *transaction.Transaction {
	t.Helper()
	tx, err := f.txs.Create(context.Background(), transaction.CreateParams{
		TransactionType:      "DEBIT",
		Amount:               decimal.RequireFromString(amount),
		Currency:             "USD",
		AccountID:            "ACC-1",
		TransactionTimestamp: ts,
		Description:          description,
		CreatedAt:            baseTime,
		CreatedByID:          creator,
	})
	require.NoError(t, err)
	return tx
}

func ids(rows []*transaction.Transaction) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestMigrate_Idempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrate(context.Background()))
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.users.GetByUsername(ctx, "audit_user")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.auditor.ID, got.ID)
	assert.Equal(t, user.RoleAuditor, got.Role)
	assert.Equal(t, "hash-audit_user", got.PasswordHash)

	got, err = f.users.GetByID(ctx, f.transactor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "transact_user", got.Username)

	got, err = f.users.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = f.users.Create(ctx, user.CreateUserParams{Username: "audit_user", PasswordHash: "x", Role: user.RoleAuditor})
	assert.Error(t, err)

	all, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransactionRepository_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc := "Coffee beans"
	ts := time.Date(2024, 2, 29, 23, 59, 59, 123456000, time.UTC)
	created := f.insert(t, f.transactor.ID, "19.99", ts, &desc)

	rows, err := f.txs.Find(ctx, transaction.Predicate{ID: &created.ID}, transaction.Window{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "19.99", got.Amount.String())
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, ts, got.TransactionTimestamp)
	assert.Equal(t, baseTime, got.CreatedAt)
	assert.Equal(t, f.transactor.ID, got.CreatedByID)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Nil(t, got.SourceSystem)
	assert.Equal(t, created.ID, got.ID)
}

func TestTransactionRepository_PaginationIsComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Pairs of rows share a timestamp so ordering relies on the id tiebreak.
	for i := 0; i < 23; i++ {
		f.insert(t, f.transactor.ID, "1.00", baseTime.Add(-time.Duration(i/2)*time.Hour), nil)
	}

	p := transaction.Predicate{}
	total, err := f.txs.Count(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)

	all, err := f.txs.Find(ctx, p, transaction.Window{})
	require.NoError(t, err)
	require.Len(t, all, 23)

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		ordered := prev.TransactionTimestamp.After(cur.TransactionTimestamp) ||
			(prev.TransactionTimestamp.Equal(cur.TransactionTimestamp) && prev.ID > cur.ID)
		assert.True(t, ordered, "rows %d and %d out of order", prev.ID, cur.ID)
	}

	var paged []*transaction.Transaction
	for page := 1; ; page++ {
		rows, err := f.txs.Find(ctx, p, transaction.Window{Limit: 5, Offset: (page - 1) * 5})
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		paged = append(paged, rows...)
	}
	assert.Equal(t, ids(all), ids(paged))

	var scanned []*transaction.Transaction
	err = f.txs.Scan(ctx, p, 4, func(batch []*transaction.Transaction) error {
		assert.LessOrEqual(t, len(batch), 4)
		scanned = append(scanned, batch...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ids(all), ids(scanned))
}

func TestTransactionRepository_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	coffee := "Morning COFFEE run"
	discount := "50% off sale"
	plain := "500 units"

	a := f.insert(t, f.transactor.ID, "10.00", baseTime, &coffee)
	b := f.insert(t, f.transactor.ID, "25.50", baseTime.Add(-24*time.Hour), &discount)
	c := f.insert(t, f.other.ID, "99.9999", baseTime.Add(-48*time.Hour), &plain)
	d := f.insert(t, f.other.ID, "5.00", baseTime.Add(-72*time.Hour), nil)
	accented := "Élan Café PAYMENT"
	e := f.insert(t, f.other.ID, "1.00", baseTime.Add(-96*time.Hour), &accented)
	huge := decimal.RequireFromString("1e15")

	tests := []struct {
		name    string
		filters transaction.Filters
		want    []int64
	}{
		{"No filters", transaction.Filters{}, []int64{a.ID, b.ID, c.ID, d.ID, e.ID}},
		{"Creator", transaction.Filters{CreatedByID: &f.transactor.ID}, []int64{a.ID, b.ID}},
		{"Keyword case-insensitive", transaction.Filters{Keyword: "coffee"}, []int64{a.ID}},
		{"Keyword percent literal", transaction.Filters{Keyword: "50%"}, []int64{b.ID}},
		{"Keyword non-ASCII lower", transaction.Filters{Keyword: "élan"}, []int64{e.ID}},
		{"Keyword non-ASCII upper", transaction.Filters{Keyword: "ÉLAN"}, []int64{e.ID}},
		{"Keyword mixed accents", transaction.Filters{Keyword: "café pay"}, []int64{e.ID}},
		{"Keyword skips null description", transaction.Filters{Keyword: "0"}, []int64{b.ID, c.ID}},
		{"Min amount inclusive", transaction.Filters{MinAmount: ptr(decimal.RequireFromString("25.5"))}, []int64{b.ID, c.ID}},
		{"Max amount inclusive", transaction.Filters{MaxAmount: ptr(decimal.RequireFromString("10"))}, []int64{a.ID, d.ID, e.ID}},
		{"Max amount finer than storage", transaction.Filters{MaxAmount: ptr(decimal.RequireFromString("99.99989"))}, []int64{a.ID, b.ID, d.ID, e.ID}},
		{"Min amount beyond storage", transaction.Filters{MinAmount: &huge}, []int64{}},
		{"Max amount beyond storage", transaction.Filters{MaxAmount: &huge}, []int64{a.ID, b.ID, c.ID, d.ID, e.ID}},
		{"Date range inclusive", transaction.Filters{
			StartDate: ptr(baseTime.Add(-48 * time.Hour)),
			EndDate:   ptr(baseTime.Add(-24 * time.Hour)),
		}, []int64{b.ID, c.ID}},
		{"Start after end", transaction.Filters{
			StartDate: ptr(baseTime),
			EndDate:   ptr(baseTime.Add(-time.Hour)),
		}, []int64{}},
		{"Combined", transaction.Filters{CreatedByID: &f.other.ID, MinAmount: ptr(decimal.NewFromInt(6))}, []int64{c.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := transaction.Predicate{Filters: tt.filters}

			rows, err := f.txs.Find(ctx, p, transaction.Window{Limit: 100})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))

			n, err := f.txs.Count(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
		})
	}
}

func TestTransactionRepository_ServiceScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.insert(t, f.transactor.ID, "1.00", baseTime.Add(-time.Duration(i)*time.Minute), nil)
		f.insert(t, f.other.ID, "2.00", baseTime.Add(-time.Duration(i)*time.Minute), nil)
	}

	svc := transaction.NewService(f.txs, 2)

	// A transactor asking for another creator's rows still only sees their own.
	caller := f.transactor.Caller()
	res, err := svc.ListTransactions(ctx, transaction.Filters{CreatedByID: &f.other.ID}, transaction.FirstPage(), caller)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	for _, row := range res.Data {
		assert.Equal(t, f.transactor.ID, row.CreatedByID)
	}

	// The auditor's report and listing agree on the same filters.
	filters := transaction.Filters{CreatedByID: &f.other.ID}
	listed, err := svc.ListTransactions(ctx, filters, transaction.Page{Number: 1, Size: 100}, f.auditor.Caller())
	require.NoError(t, err)
	report, err := svc.GenerateReport(ctx, filters, f.auditor.Caller())
	require.NoError(t, err)
	assert.Equal(t, listed.TotalCount, int64(len(report)))
	assert.Equal(t, ids(listed.Data), ids(report))
}

// Count and Find are separate reads without a shared snapshot. A row
// committed between them shows up in the page but not in the count.
func TestTransactionRepository_CountFindRaceIsVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insert(t, f.transactor.ID, "1.00", baseTime, nil)
	p := transaction.Predicate{}

	n, err := f.txs.Count(ctx, p)
	require.NoError(t, err)

	f.insert(t, f.transactor.ID, "1.00", baseTime.Add(time.Minute), nil)

	rows, err := f.txs.Find(ctx, p, transaction.Window{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, n+1, int64(len(rows)))
}

func TestTransactionRepository_ScanStopsOnCallbackError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		f.insert(t, f.transactor.ID, fmt.Sprintf("%d.00", i+1), baseTime.Add(-time.Duration(i)*time.Minute), nil)
	}

	stop := errors.New("stop")
	calls := 0
	err := f.txs.Scan(ctx, transaction.Predicate{}, 3, func([]*transaction.Transaction) error {
		calls++
		return stop
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, calls)

	err = f.txs.Scan(ctx, transaction.Predicate{}, 0, func([]*transaction.Transaction) error { return nil })
	assert.Error(t, err)
}

func TestTransactionRepository_RejectsUnknownCreator(t *testing.T) {
	f := newFixture(t)

	_, err := f.txs.Create(context.Background(), transaction.CreateParams{
		TransactionType:      "DEBIT",
		Amount:               decimal.NewFromInt(1),
		Currency:             "USD",
		AccountID:            "ACC-1",
		TransactionTimestamp: baseTime,
		CreatedAt:            baseTime,
		CreatedByID:          9999,
	})
	assert.Error(t, err)
}

func TestTransactionRepository_RejectsUnstorableAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.txs.Create(ctx, transaction.CreateParams{
		TransactionType:      "DEBIT",
		Amount:               decimal.RequireFromString("1844674407370955.1617"),
		Currency:             "USD",
		AccountID:            "ACC-1",
		TransactionTimestamp: baseTime,
		CreatedAt:            baseTime,
		CreatedByID:          f.transactor.ID,
	})
	require.Error(t, err)

	// The writer refuses it before the store is reached.
	writer := transaction.NewWriter(f.txs)
	_, err = writer.CreateTransaction(ctx, transaction.CreateInput{
		TransactionType:      "DEBIT",
		Amount:               decimal.RequireFromString("1844674407370955.1617"),
		Currency:             "USD",
		AccountID:            "ACC-1",
		TransactionTimestamp: "2024-05-01",
	}, f.transactor.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	n, err := f.txs.Count(ctx, transaction.Predicate{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
