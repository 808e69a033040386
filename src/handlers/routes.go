package handlers

import (
	"net/http"

	"github.com/fundledger/backend/src/config"
	"github.com/fundledger/backend/src/metrics"
	"github.com/fundledger/backend/src/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the JSON API, the HTML dashboard and the operational endpoints.
func NewRouter(
	cfg *config.AppConfig,
	recorder *metrics.Recorder,
	investmentHandler *InvestmentHandler,
	exitHandler *ExitHandler,
	dashboardHandler *DashboardHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(MetricsMiddleware(recorder))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(RateLimitMiddleware(cfg.RateLimitInterval, cfg.RateLimitBurst))
	r.Use(BodyLimitMiddleware(cfg.MaxRequestBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", recorder.Handler())

	r.Group(func(r chi.Router) {
		r.Use(CSRFMiddleware(cfg.CSRFEnabled))

		r.Get("/", dashboardHandler.HandleDashboardPage)
		r.Post("/dashboard/investments", dashboardHandler.HandleCreateInvestmentForm)
		r.Post("/dashboard/investments/{id}", dashboardHandler.HandleUpdateInvestmentForm)
		r.Post("/dashboard/investments/{id}/delete", dashboardHandler.HandleDeleteInvestmentForm)
		r.Post("/dashboard/investments/{id}/exit", dashboardHandler.HandleCreateExitForm)
		r.Post("/dashboard/exits/{id}/delete", dashboardHandler.HandleDeleteExitForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf", GetCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(CSRFMiddleware(cfg.CSRFEnabled))

			r.Get("/investments", investmentHandler.HandleListInvestments)
			r.Post("/investments", investmentHandler.HandleCreateInvestment)
			r.Get("/investments/{id}", investmentHandler.HandleGetInvestment)
			r.Patch("/investments/{id}", investmentHandler.HandleUpdateInvestment)
			r.Delete("/investments/{id}", investmentHandler.HandleDeleteInvestment)
			r.Get("/investments/{id}/exit", investmentHandler.HandleGetInvestmentExit)

			r.Post("/exits", exitHandler.HandleCreateExit)
			r.Patch("/exits/{id}", exitHandler.HandleUpdateExit)
			r.Delete("/exits/{id}", exitHandler.HandleDeleteExit)

			r.Get("/dashboard", dashboardHandler.HandleGetDashboard)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONError(w, "Not found", http.StatusNotFound)
	})

	return r
}
