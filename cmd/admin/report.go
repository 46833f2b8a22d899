package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/domain/user"
	"txaudit/internal/infrastructure/sqlstore"
)

type reportOptions struct {
	As        string
	Format    string
	Filters   []string
	BatchSize int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write every transaction matching the filters to stdout",
		Example: `  admin report --as audit_user --filter accountId=ACC-0001 --filter minAmount=100
  admin report --format json --filter startDate=2024-01-01 --filter endDate=2024-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFilterFlags(opts.Filters)
			if err != nil {
				return err
			}
			filters, err := transaction.NormalizeFilters(values)
			if err != nil {
				return err
			}
			if opts.Format != "csv" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be csv or json", opts.Format)
			}

			db, err := rootOpts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			caller, err := lookupCaller(cmd, db, opts.As)
			if err != nil {
				return err
			}

			service := transaction.NewService(sqlstore.NewTransactionRepository(db), opts.BatchSize)
			out := cmd.OutOrStdout()

			if opts.Format == "json" {
				rows, err := service.GenerateReport(cmd.Context(), filters, caller)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			cw := csv.NewWriter(out)
			if err := cw.Write(transaction.CSVHeader); err != nil {
				return err
			}
			err = service.StreamReport(cmd.Context(), filters, caller, func(batch []*transaction.Transaction) error {
				for _, tx := range batch {
					if err := cw.Write(tx.CSVRecord()); err != nil {
						return err
					}
				}
				cw.Flush()
				return cw.Error()
			})
			if err != nil {
				return err
			}
			cw.Flush()
			return cw.Error()
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "audit_user", "username of the auditor running the report")
	cmd.Flags().StringVar(&opts.Format, "format", "csv", "output format (csv|json)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "filter as key=value, repeatable (transactionType, accountId, startDate, endDate, minAmount, maxAmount, keyword, createdById)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", transaction.DefaultReportBatchSize, "rows fetched per round trip")

	return cmd
}

func parseFilterFlags(raw []string) (url.Values, error) {
	values := url.Values{}
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", kv)
		}
		values.Set(strings.TrimSpace(key), value)
	}
	return values, nil
}

func lookupCaller(cmd *cobra.Command, db *sqlstore.DB, username string) (user.Caller, error) {
	u, err := sqlstore.NewUserRepository(db).GetByUsername(cmd.Context(), username)
	if err != nil {
		return user.Caller{}, err
	}
	if u == nil {
		return user.Caller{}, fmt.Errorf("user %q not found", username)
	}
	return u.Caller(), nil
}
