package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/domain/user"
	"txaudit/internal/infrastructure/sqlstore"
)

// seedUser is an account created by seed when its username is free.
type seedUser struct {
	Username string
	Password string
	Role     user.Role
}

var defaultSeedUsers = []seedUser{
	{Username: "audit_user", Password: "password123", Role: user.RoleAuditor},
	{Username: "transact_user", Password: "password456", Role: user.RoleTransactor},
}

var seedTransactionTypes = []string{"deposit", "withdrawal", "transfer", "payment", "refund"}

var seedCurrencies = []string{"USD", "EUR", "GBP", "BRL"}

type seedOptions struct {
	Transactions int
	Seed         int64
	Days         int
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default auditor and transactor accounts, optionally with fake transactions",
		Long: `Create the default accounts audit_user (auditor, password123) and
transact_user (transactor, password456). Accounts that already exist are left
untouched. With --transactions N, N generated transactions are appended as
created by transact_user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Transactions < 0 {
				return fmt.Errorf("--transactions must not be negative")
			}
			if opts.Days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			db, err := rootOpts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return runSeed(cmd.Context(), db, opts, rootOpts.log, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Transactions, "transactions", "n", 0, "number of fake transactions to create")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for generated data (0 picks one)")
	cmd.Flags().IntVar(&opts.Days, "days", 90, "spread generated timestamps over this many past days")

	return cmd
}

func runSeed(ctx context.Context, db *sqlstore.DB, opts *seedOptions, log zerolog.Logger, out io.Writer) error {
	userRepo := sqlstore.NewUserRepository(db)
	users := user.NewService(userRepo)

	var creator *user.User
	for _, su := range defaultSeedUsers {
		u, err := userRepo.GetByUsername(ctx, su.Username)
		if err != nil {
			return err
		}
		if u == nil {
			if u, err = users.Register(ctx, su.Username, su.Password, su.Role); err != nil {
				return fmt.Errorf("register %s: %w", su.Username, err)
			}
			fmt.Fprintf(out, "created user %s (%s)\n", u.Username, u.Role)
		} else {
			log.Info().Str("username", su.Username).Msg("user already exists, skipping")
		}
		if u.Role == user.RoleTransactor {
			creator = u
		}
	}

	if opts.Transactions == 0 {
		return nil
	}
	if creator == nil {
		return fmt.Errorf("no transactor account to own generated transactions")
	}

	faker := gofakeit.New(opts.Seed)
	writer := transaction.NewWriter(sqlstore.NewTransactionRepository(db))
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -opts.Days)

	for i := 0; i < opts.Transactions; i++ {
		if _, err := writer.CreateTransaction(ctx, fakeTransaction(faker, start, end), creator.ID); err != nil {
			return fmt.Errorf("create transaction %d: %w", i+1, err)
		}
	}

	fmt.Fprintf(out, "created %d transactions for %s\n", opts.Transactions, creator.Username)
	return nil
}

func fakeTransaction(f *gofakeit.Faker, start, end time.Time) transaction.CreateInput {
	description := f.Sentence(6)
	source := "seed"
	return transaction.CreateInput{
		TransactionType:      f.RandomString(seedTransactionTypes),
		Amount:               decimal.NewFromFloat(f.Price(1, 5000)).Round(2),
		Currency:             f.RandomString(seedCurrencies),
		AccountID:            f.Numerify("ACC-####"),
		TransactionTimestamp: f.DateRange(start, end).UTC().Format(time.RFC3339),
		Description:          &description,
		SourceSystem:         &source,
	}
}
