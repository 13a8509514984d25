package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kazi-pay/kazi_pay/internal/config"
	"github.com/kazi-pay/kazi_pay/internal/history"
	"github.com/kazi-pay/kazi_pay/internal/middleware"
	"github.com/kazi-pay/kazi_pay/internal/mpesa"
	"github.com/kazi-pay/kazi_pay/internal/notification"
	"github.com/kazi-pay/kazi_pay/internal/transaction"
	"github.com/kazi-pay/kazi_pay/internal/transfer"
	"github.com/kazi-pay/kazi_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Outside development
// the database and cache are mandatory; in development missing backends fall
// back to in-memory stores and a static gateway stub.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}
	walletSvc := wallet.NewService(walletRepo)

	var txRepo transaction.Repository
	if d.DB != nil {
		txRepo = transaction.NewPostgresRepository(d.DB)
	} else {
		txRepo = transaction.NewMemoryRepository()
	}
	txSvc := transaction.NewService(txRepo)

	var gateway mpesa.Gateway
	if d.Cfg.Mpesa.BaseURL != "" {
		gateway = mpesa.NewHTTPGateway(d.Cfg.Mpesa.BaseURL, d.Cfg.Mpesa.Shortcode, d.Cfg.Mpesa.APIKey, d.Cfg.Mpesa.Timeout)
	} else if d.Cfg.IsDevelopment() {
		gateway = mpesa.StaticGateway{}
	} else {
		return fmt.Errorf("MPESA_BASE_URL is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	transferSvc := transfer.NewService(walletSvc, txSvc, gateway, notifier, d.Logger)

	historySources := []history.Source{history.NewTransactionSource(txSvc)}
	if d.DB != nil {
		historySources = append(historySources,
			history.NewMpesaStatementSource(d.DB),
			history.NewLoanSource(d.DB),
		)
	}
	historySvc := history.NewService(historySources...)

	api := app.Group("/api/v1")

	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc))
	RegisterTransactionRoutes(api, transaction.NewHandler(txSvc))
	RegisterHistoryRoutes(api, history.NewHandler(historySvc))

	// Money-moving endpoints sit behind the idempotency guard when a cache is
	// available.
	transfers := api.Group("")
	if d.Cache != nil {
		transfers = api.Group("", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterTransferRoutes(transfers, transfer.NewHandler(transferSvc))

	return nil
}
