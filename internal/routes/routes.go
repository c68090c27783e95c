package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dinoventures/moneymanager/internal/asset"
	"github.com/dinoventures/moneymanager/internal/auth"
	"github.com/dinoventures/moneymanager/internal/budget"
	"github.com/dinoventures/moneymanager/internal/config"
	"github.com/dinoventures/moneymanager/internal/identity"
	"github.com/dinoventures/moneymanager/internal/ledger"
	"github.com/dinoventures/moneymanager/internal/middleware"
	"github.com/dinoventures/moneymanager/internal/notification"
	"github.com/dinoventures/moneymanager/internal/seed"
	"github.com/dinoventures/moneymanager/internal/transactions"
	"github.com/dinoventures/moneymanager/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. With a nil DB the
// whole stack runs on in-memory stores, which is only allowed in dev mode.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil && !isDev(d.Cfg.AppEnv) {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Repositories
	var (
		assetRepo    asset.Repository
		walletRepo   wallet.Repository
		identityRepo identity.Repository
		txRepo       transactions.Repository
		budgetRepo   budget.Repository
		ledgerImpl   ledger.Ledger
	)
	if d.DB != nil {
		assetRepo = asset.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		txRepo = transactions.NewPostgresRepository(d.DB)
		budgetRepo = budget.NewPostgresRepository(d.DB)
		ledgerImpl = ledger.NewPostgresLedger(d.DB)
	} else {
		assetRepo = asset.NewMemoryRepository()
		memWallets := wallet.NewMemoryRepository()
		walletRepo = memWallets
		identityRepo = identity.NewMemoryRepository()
		txRepo = transactions.NewMemoryRepository()
		budgetRepo = budget.NewMemoryRepository()
		ledgerImpl = ledger.NewInMemory(memWallets)

		// In-memory stores start empty on every boot, so dev mode seeds here.
		if err := seed.New(assetRepo, walletRepo, identityRepo, d.Logger).Run(context.Background()); err != nil {
			return err
		}
	}

	// Services
	var balanceCache *wallet.BalanceCache
	if d.Cache != nil {
		balanceCache = wallet.NewBalanceCache(d.Cache, d.Cfg.BalanceCacheTTL)
	}
	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(assetRepo, walletRepo, ledgerImpl, balanceCache, notifier, d.Logger)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	txSvc := transactions.NewService(txRepo)
	budgetSvc := budget.NewService(budgetRepo)

	// Handlers
	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc, d.Logger)
	walletHandler := wallet.NewHandler(walletSvc)
	txHandler := transactions.NewHandler(txSvc)
	budgetHandler := budget.NewHandler(budgetSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Cfg.LoginRateWindow)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(d.Cfg.JWTSecret))
	protected.Get("/me", profileHandler(identityRepo))
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, txHandler)
	RegisterBudgetRoutes(protected, budgetHandler)

	return nil
}

func profileHandler(users identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := users.FindByID(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"userId":    user.ID,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"email":     user.Email,
			"active":    user.Active,
			"createdAt": user.CreatedAt,
		})
	}
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
