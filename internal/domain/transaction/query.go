package transaction

import (
	"txaudit/internal/domain/user"
)

// Predicate is the full row constraint of one request: the normalized
// filters after visibility, plus an optional primary-key match. It is built
// once per request and handed unchanged to every store call that request
// makes, so a count and the page it describes always agree.
type Predicate struct {
	Filters
	ID *int64
}

// Window bounds the rows returned by a find. A zero Limit means no limit.
type Window struct {
	Limit  int
	Offset int
}

// Query is the contract handed to the store. Rows are always ordered by
// TransactionTimestamp descending, then ID descending.
type Query struct {
	Predicate Predicate
	Window    Window
}

// Compose builds the paged listing query for caller.
func Compose(caller user.Caller, f Filters, page Page) Query {
	return Query{
		Predicate: Predicate{Filters: ApplyVisibility(caller, f)},
		Window:    Window{Limit: page.Size, Offset: page.Offset()},
	}
}

// ComposeReport builds the unbounded report query for caller.
func ComposeReport(caller user.Caller, f Filters) Query {
	return Query{
		Predicate: Predicate{Filters: ApplyVisibility(caller, f)},
	}
}

// ComposeLookup builds a single-row query for id under caller's visibility.
func ComposeLookup(caller user.Caller, id int64) Query {
	return Query{
		Predicate: Predicate{Filters: ApplyVisibility(caller, Filters{}), ID: &id},
		Window:    Window{Limit: 1},
	}
}
