package app

import (
	"context"
	"fmt"
	"time"

	"github.com/koyif/billing/internal/config"
	"github.com/koyif/billing/internal/fixtures"
	"github.com/koyif/billing/internal/service"
	"github.com/koyif/billing/internal/storage"
)

type App struct {
	Config *config.Config
	Store  *storage.Store

	Users        *service.UserService
	Catalog      *service.CatalogService
	Payments     *service.PaymentService
	Transactions *service.TransactionService

	now func() time.Time
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithStore(cfg, store, time.Now), nil
}

// NewWithStore wires the services around an already opened store.
func NewWithStore(cfg *config.Config, store *storage.Store, now func() time.Time) *App {
	catalog := service.NewCatalogService(store)

	return &App{
		Config:       cfg,
		Store:        store,
		Users:        service.NewUserService(store, cfg.PrivateKey, cfg.TokenTTL),
		Catalog:      catalog,
		Payments:     service.NewPaymentService(store, catalog, service.WithClock(now)),
		Transactions: service.NewTransactionService(store, now),
		now:          now,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	switch cfg.DatabaseDriver {
	case storage.DriverPostgres:
		return storage.OpenPostgres(ctx, cfg.DatabaseURL)
	case storage.DriverSQLite:
		return storage.OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

func (a *App) Migrate(ctx context.Context) error {
	return a.Store.Migrate(ctx)
}

func (a *App) Seed(ctx context.Context) error {
	fx, err := fixtures.FromFile(a.Config.FixturesPath)
	if err != nil {
		return err
	}

	return fixtures.Load(ctx, fx, a.Store, a.paymentsAt, a.Users.HashPassword, a.now().UTC())
}

// paymentsAt is the payment engine with its clock pinned, used to replay
// fixture history at its original timestamps.
func (a *App) paymentsAt(at time.Time) fixtures.Payments {
	return service.NewPaymentService(a.Store, a.Catalog, service.WithClock(func() time.Time { return at }))
}

func (a *App) Close() error {
	return a.Store.Close()
}
