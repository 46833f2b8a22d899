package sqlstore

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"txaudit/internal/domain/transaction"
)

const transactionColumns = "id, transaction_type, amount_minor, currency, account_id, " +
	"transaction_timestamp, description, source_system, created_at, created_by_id"

// orderBy is the one row order used by every listing and report query.
const orderBy = " ORDER BY transaction_timestamp DESC, id DESC"

// cursor is the position of the last row of a report batch.
type cursor struct {
	Timestamp time.Time
	ID        int64
}

// clauses accumulates AND-ed conditions and their bind arguments.
type clauses struct {
	dialect Dialect
	conds   []string
	args    []any
}

// add appends cond, replacing each '?' with the dialect's next bind marker.
func (c *clauses) add(cond string, args ...any) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(cond); i++ {
		if cond[i] == '?' && next < len(args) {
			c.args = append(c.args, args[next])
			b.WriteString(c.dialect.placeholder(len(c.args)))
			next++
			continue
		}
		b.WriteByte(cond[i])
	}
	c.conds = append(c.conds, b.String())
}

func (c *clauses) where() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// compilePredicate translates p into conditions. Count, find and report
// queries all go through here so they select the same rows.
func compilePredicate(d Dialect, p transaction.Predicate) *clauses {
	c := &clauses{dialect: d}

	if p.ID != nil {
		c.add("id = ?", *p.ID)
	}
	if p.CreatedByID != nil {
		c.add("created_by_id = ?", *p.CreatedByID)
	}
	if p.TransactionType != "" {
		c.add("transaction_type = ?", p.TransactionType)
	}
	if p.AccountID != "" {
		c.add("account_id = ?", p.AccountID)
	}
	if p.StartDate != nil {
		c.add("transaction_timestamp >= ?", d.timeArg(*p.StartDate))
	}
	if p.EndDate != nil {
		c.add("transaction_timestamp <= ?", d.timeArg(*p.EndDate))
	}
	if p.MinAmount != nil {
		switch m, above, below := minorBound(*p.MinAmount, true); {
		case above:
			c.add("1 = 0")
		case below:
			// no stored amount is smaller
		default:
			c.add("amount_minor >= ?", m)
		}
	}
	if p.MaxAmount != nil {
		switch m, above, below := minorBound(*p.MaxAmount, false); {
		case below:
			c.add("1 = 0")
		case above:
			// no stored amount is larger
		default:
			c.add("amount_minor <= ?", m)
		}
	}
	if p.Keyword != "" {
		c.add(`LOWER(description) LIKE ? ESCAPE '\'`, likePattern(p.Keyword))
	}

	return c
}

func compileCount(d Dialect, p transaction.Predicate) (string, []any) {
	c := compilePredicate(d, p)
	return "SELECT COUNT(*) FROM transactions" + c.where(), c.args
}

func compileFind(d Dialect, p transaction.Predicate, w transaction.Window) (string, []any) {
	c := compilePredicate(d, p)
	query := "SELECT " + transactionColumns + " FROM transactions" + c.where() + orderBy

	args := c.args
	switch {
	case w.Limit > 0:
		args = append(args, w.Limit, w.Offset)
		query += " LIMIT " + d.placeholder(len(args)-1) + " OFFSET " + d.placeholder(len(args))
	case w.Offset > 0:
		args = append(args, w.Offset)
		if d == SQLite {
			query += " LIMIT -1"
		}
		query += " OFFSET " + d.placeholder(len(args))
	}
	return query, args
}

// compileBatch selects the next size rows after the cursor in report order.
func compileBatch(d Dialect, p transaction.Predicate, after *cursor, size int) (string, []any) {
	c := compilePredicate(d, p)
	if after != nil {
		ts := d.timeArg(after.Timestamp)
		c.add("(transaction_timestamp < ? OR (transaction_timestamp = ? AND id < ?))", ts, ts, after.ID)
	}

	args := append(c.args, size)
	query := "SELECT " + transactionColumns + " FROM transactions" + c.where() + orderBy +
		" LIMIT " + d.placeholder(len(args))
	return query, args
}

// likePattern builds a case-insensitive substring pattern with LIKE
// wildcards in the keyword matched literally.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(keyword)) + "%"
}

var minorFactor = decimal.New(1, transaction.AmountScale)

// toMinor converts an amount limited to AmountScale digits. Amounts whose
// minor units do not fit in an int64 are refused rather than wrapped.
func toMinor(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(minorFactor)
	if !scaled.IsInteger() || scaled.GreaterThan(maxMinor) || scaled.LessThan(minMinor) {
		return 0, fmt.Errorf("amount %s is not storable at scale %d", d, transaction.AmountScale)
	}
	return scaled.IntPart(), nil
}

func fromMinor(m int64) decimal.Decimal {
	return decimal.New(m, -transaction.AmountScale)
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// minorBound converts a filter bound to minor units, rounding up for a lower
// bound and down for an upper one so that extra precision still compares
// exactly. above and below report a bound outside the int64 range; m is then
// meaningless and the caller decides whether the bound excludes everything
// or nothing.
func minorBound(d decimal.Decimal, roundUp bool) (m int64, above, below bool) {
	scaled := d.Mul(minorFactor)
	if roundUp {
		scaled = scaled.Ceil()
	} else {
		scaled = scaled.Floor()
	}
	switch {
	case scaled.GreaterThan(maxMinor):
		return 0, true, false
	case scaled.LessThan(minMinor):
		return 0, false, true
	}
	return scaled.IntPart(), false, false
}
