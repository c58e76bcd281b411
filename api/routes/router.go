package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quansahdev/datamart-backend/api/controllers"
	webhookcontrollers "github.com/quansahdev/datamart-backend/api/controllers/webhooks"
	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/internal/identity"
	"github.com/quansahdev/datamart-backend/internal/orders"
	"github.com/quansahdev/datamart-backend/internal/payments"
	"github.com/quansahdev/datamart-backend/internal/pricing"
	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/internal/withdrawals"
	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/db"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
	redisclient "github.com/quansahdev/datamart-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redisclient.Client
	Registry *prometheus.Registry

	Identity    identity.Service
	Pricing     pricing.Service
	Orders      orders.Service
	Payments    payments.Service
	Wallet      wallet.Service
	Withdrawals withdrawals.Service
	Gateway     *paystack.Client

	AgentActivationFee money.Amount
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookcontrollers.Paystack(deps.Payments, deps.Gateway, logg))
	})

	// purchase surface: guests allowed, identity used when present
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, deps.Identity, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, deps.Payments, logg))
			r.Post("/bulk", controllers.CreateBulkOrder(deps.Orders, deps.Payments, logg))
			r.Get("/{reference}", controllers.GetOrder(deps.Orders, logg))
		})
		r.Get("/api/v1/payments/verify/{reference}", controllers.VerifyPayment(deps.Payments, logg))
		r.Get("/api/v1/products/{productId}/price", controllers.GetPrice(deps.Pricing, logg))
	})

	// account surface: verified identity required
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Identity, logg))

		r.Get("/api/v1/orders", controllers.ListOrders(deps.Orders, logg))

		r.Route("/api/v1/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(deps.Wallet, logg))
			r.Post("/topup", controllers.TopupWallet(deps.Orders, deps.Payments, logg))
		})
		r.Post("/api/v1/account/activate-agent", controllers.ActivateAgent(deps.Orders, deps.Payments, deps.AgentActivationFee, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireReseller(logg))
			r.Put("/api/v1/products/{productId}/price-override", controllers.SetPriceOverride(deps.Pricing, logg))
			r.Route("/api/v1/withdrawals", func(r chi.Router) {
				r.Post("/", controllers.CreateWithdrawal(deps.Withdrawals, logg))
				r.Get("/", controllers.ListWithdrawals(deps.Withdrawals, logg))
			})
		})
	})

	// admin surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Identity, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Put("/api/v1/admin/products/{productId}/role-price", controllers.SetRolePrice(deps.Pricing, logg))
		r.Route("/api/v1/admin/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.AdminListPendingWithdrawals(deps.Withdrawals, logg))
			r.Post("/{withdrawalId}/approve", controllers.AdminApproveWithdrawal(deps.Withdrawals, logg))
			r.Post("/{withdrawalId}/reject", controllers.AdminRejectWithdrawal(deps.Withdrawals, logg))
			r.Post("/{withdrawalId}/pay", controllers.AdminPayWithdrawal(deps.Withdrawals, logg))
			r.Post("/{withdrawalId}/fail", controllers.AdminFailWithdrawal(deps.Withdrawals, logg))
		})
	})

	return r
}
