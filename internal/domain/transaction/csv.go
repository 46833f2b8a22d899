package transaction

import (
	"strconv"
	"time"
)

// CSVHeader names the columns of CSVRecord, in order.
var CSVHeader = []string{
	"ID", "Type", "Amount", "Currency", "Account ID", "Timestamp", "Description", "Source System",
}

// CSVRecord renders t as one report row. Absent optional text becomes an
// empty cell.
func (t *Transaction) CSVRecord() []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.TransactionType,
		t.Amount.String(),
		t.Currency,
		t.AccountID,
		t.TransactionTimestamp.UTC().Format(time.RFC3339Nano),
		deref(t.Description),
		deref(t.SourceSystem),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
