package main

import (
	"context"

	"github.com/rs/zerolog"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/domain/user"
	"txaudit/internal/infrastructure/sqlstore"
	httphandlers "txaudit/internal/interfaces/http"
	"txaudit/internal/shared/auth"
	"txaudit/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *sqlstore.DB

	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	UserHandler        *httphandlers.UserHandler
	TransactionHandler *httphandlers.TransactionHandler
	ReportHandler      *httphandlers.ReportHandler
	HealthHandler      *httphandlers.HealthHandler

	// Auth
	JWT *auth.JWT
}

// NewDependencies connects to the database, applies the schema and wires the
// services and handlers.
func NewDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Dependencies, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.Open(ctx, dialect, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("driver", dialect.String()).Msg("connected to database")

	// Repositories
	userRepo := sqlstore.NewUserRepository(db)
	transactionRepo := sqlstore.NewTransactionRepository(db)

	// Domain services
	userService := user.NewService(userRepo)
	transactionService := transaction.NewService(transactionRepo, cfg.Report.BatchSize)
	transactionWriter := transaction.NewWriter(transactionRepo)

	jwt := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	return &Dependencies{
		DB:                 db,
		AuthHandler:        httphandlers.NewAuthHandler(userService, jwt),
		UserHandler:        httphandlers.NewUserHandler(userService),
		TransactionHandler: httphandlers.NewTransactionHandler(transactionService, transactionWriter),
		ReportHandler:      httphandlers.NewReportHandler(transactionService),
		HealthHandler:      httphandlers.NewHealthHandler(db),
		JWT:                jwt,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
