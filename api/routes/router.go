package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborops/seaprocure-backend/api/controllers"
	invoicecontrollers "github.com/harborops/seaprocure-backend/api/controllers/invoices"
	pocontrollers "github.com/harborops/seaprocure-backend/api/controllers/purchaseorders"
	requisitioncontrollers "github.com/harborops/seaprocure-backend/api/controllers/requisitions"
	rfqcontrollers "github.com/harborops/seaprocure-backend/api/controllers/rfq"
	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/internal/approvals"
	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/internal/invoices"
	"github.com/harborops/seaprocure-backend/internal/purchaseorders"
	"github.com/harborops/seaprocure-backend/internal/requisitions"
	"github.com/harborops/seaprocure-backend/internal/rfq"
	"github.com/harborops/seaprocure-backend/internal/vendors"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	"github.com/harborops/seaprocure-backend/pkg/logger"
	"github.com/harborops/seaprocure-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	requisitionsSvc requisitions.Service,
	rfqSvc rfq.Service,
	purchaseOrdersSvc purchaseorders.Service,
	invoicesSvc invoices.Service,
	vendorsSvc vendors.Service,
	approvalsSvc approvals.Service,
	auditSvc audit.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1/requisitions", func(r chi.Router) {
			r.Post("/", requisitioncontrollers.Create(requisitionsSvc, logg))
			r.Get("/", requisitioncontrollers.List(requisitionsSvc, logg))
			r.Post("/sync", requisitioncontrollers.Sync(requisitionsSvc, logg))
			r.Route("/{requisitionId}", func(r chi.Router) {
				r.Get("/", requisitioncontrollers.Get(requisitionsSvc, logg))
				r.Post("/submit", requisitioncontrollers.Submit(requisitionsSvc, logg))
				r.Post("/approve", requisitioncontrollers.Approve(requisitionsSvc, logg))
				r.Post("/reject", requisitioncontrollers.Reject(requisitionsSvc, logg))
				r.Post("/cancel", requisitioncontrollers.Cancel(requisitionsSvc, logg))
				r.Post("/override", requisitioncontrollers.Override(requisitionsSvc, logg))
				r.Post("/rfq", requisitioncontrollers.GenerateRFQ(requisitionsSvc, logg))
				r.Get("/rfq", rfqcontrollers.GetByRequisition(rfqSvc, logg))
				r.Get("/approval-records", requisitioncontrollers.ApprovalRecords(requisitionsSvc, logg))
				r.Get("/audit-trail", requisitioncontrollers.AuditTrail(auditSvc, logg))
			})
		})

		r.Route("/v1/rfqs/{rfqId}", func(r chi.Router) {
			r.Get("/quotes", rfqcontrollers.ListQuotes(rfqSvc, logg))
			r.Post("/quotes", rfqcontrollers.SubmitQuote(rfqSvc, logg))
		})
		r.Post("/v1/quotes/{quoteId}/select", rfqcontrollers.SelectQuote(rfqSvc, logg))

		r.Route("/v1/purchase-orders", func(r chi.Router) {
			r.Post("/", pocontrollers.Generate(purchaseOrdersSvc, logg))
			r.Route("/{purchaseOrderId}", func(r chi.Router) {
				r.Get("/", pocontrollers.Get(purchaseOrdersSvc, logg))
				r.With(middleware.RequireRole(logg,
					enums.CrewRoleSuperintendent,
					enums.CrewRoleFleetManager,
					enums.CrewRoleProcurementOfficer,
				)).Post("/approve", pocontrollers.Approve(purchaseOrdersSvc, logg))
				r.Post("/confirm-delivery", pocontrollers.ConfirmDelivery(purchaseOrdersSvc, logg))
				r.Post("/confirm-receipt", pocontrollers.ConfirmReceipt(purchaseOrdersSvc, logg))
			})
		})

		r.Route("/v1/invoices", func(r chi.Router) {
			r.Post("/", invoicecontrollers.Submit(invoicesSvc, logg))
			r.Route("/{invoiceId}", func(r chi.Router) {
				r.Get("/", invoicecontrollers.Get(invoicesSvc, logg))
				r.Post("/match", invoicecontrollers.Match(invoicesSvc, logg))
				r.With(middleware.RequireRole(logg,
					enums.CrewRoleSuperintendent,
					enums.CrewRoleFleetManager,
					enums.CrewRoleProcurementOfficer,
				)).Post("/approve-payment", invoicecontrollers.ApprovePayment(invoicesSvc, logg))
			})
		})

		r.Route("/v1/vendors", func(r chi.Router) {
			r.Get("/", controllers.VendorList(vendorsSvc, logg))
			r.Get("/{vendorId}", controllers.VendorGet(vendorsSvc, logg))
			r.With(middleware.RequireRole(logg,
				enums.CrewRoleFleetManager,
				enums.CrewRoleProcurementOfficer,
			)).Post("/", controllers.VendorCreate(vendorsSvc, logg))
		})

		r.Route("/v1/delegations", func(r chi.Router) {
			r.Post("/", controllers.DelegationCreate(approvalsSvc, logg))
			r.Get("/", controllers.DelegationList(approvalsSvc, logg))
		})
	})

	return r
}
