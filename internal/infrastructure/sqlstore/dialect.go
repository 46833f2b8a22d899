package sqlstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Dialect selects the SQL flavour and driver used by a DB.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// sqliteTimeLayout is fixed width so that lexical order of the stored text
// matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// ParseDialect maps a driver name from configuration to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgresql"
}

func (d Dialect) driverName() string {
	if d == SQLite {
		return sqliteDriver
	}
	return "postgres"
}

// placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

func (d Dialect) schema() string {
	if d == SQLite {
		return schemaSQLite
	}
	return schemaPostgres
}

// timeArg encodes t as a bind argument for this dialect.
func (d Dialect) timeArg(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// timeValue scans timestamps stored natively (Postgres) or as text (SQLite).
type timeValue struct {
	Time time.Time
}

func (tv *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		tv.Time = v.UTC()
		return nil
	case string:
		return tv.parse(v)
	case []byte:
		return tv.parse(string(v))
	case nil:
		return fmt.Errorf("unexpected NULL timestamp")
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (tv *timeValue) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	tv.Time = t.UTC()
	return nil
}

var _ sql.Scanner = (*timeValue)(nil)
