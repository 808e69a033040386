package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/services"
	"github.com/fundledger/backend/src/utils"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

func newDashboardTemplate(currency string) *template.Template {
	return template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
		"money":     func(d decimal.Decimal) string { return formatMoney(d, currency) },
		"nullMoney": func(d decimal.NullDecimal) string { return formatNullMoney(d, currency) },
		"multiple":  func(d decimal.Decimal) string { return d.StringFixed(2) + "x" },
		"percent":   func(d decimal.Decimal) string { return d.StringFixed(2) + "%" },
		"ago":       humanize.Time,
		"count":     func(n int) string { return humanize.Comma(int64(n)) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(templateFS, "templates/dashboard.html"))
}

// formatMoney renders d in the currency's own format, e.g. $1,250,000.00 for USD.
func formatMoney(d decimal.Decimal, currency string) string {
	cur := *money.New(0, currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func formatNullMoney(d decimal.NullDecimal, currency string) string {
	if !d.Valid {
		return "n/a"
	}
	return formatMoney(d.Decimal, currency)
}

type dashboardPage struct {
	Summary       *models.DashboardSummary
	CSRFToken     string
	Notice        string
	Error         string
	FundingRounds []models.FundingRound
	Statuses      []models.InvestmentStatus
	Today         string
}

type DashboardHandler struct {
	page              *template.Template
	dashboardService  services.DashboardService
	investmentService services.InvestmentService
	exitService       services.ExitService
}

// NewDashboardHandler renders amounts in currency, an ISO 4217 code.
func NewDashboardHandler(dashboardService services.DashboardService, investmentService services.InvestmentService, exitService services.ExitService, currency string) *DashboardHandler {
	return &DashboardHandler{
		page:              newDashboardTemplate(currency),
		dashboardService:  dashboardService,
		investmentService: investmentService,
		exitService:       exitService,
	}
}

func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.GetDashboard(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "load dashboard")
		return
	}
	utils.SendJSON(w, http.StatusOK, summary)
}

// HandleDashboardPage renders the HTML dashboard.
func (h *DashboardHandler) HandleDashboardPage(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		CSRFToken:     ensureCSRFToken(w, r),
		Notice:        r.URL.Query().Get("notice"),
		Error:         r.URL.Query().Get("error"),
		FundingRounds: models.FundingRounds,
		Statuses:      models.InvestmentStatuses,
		Today:         time.Now().Format(models.DateFormat),
	}

	status := http.StatusOK
	summary, err := h.dashboardService.GetDashboard(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load dashboard", "error", err)
		page.Error = "Could not load the dashboard. Please try again."
		status = http.StatusInternalServerError
	} else {
		page.Summary = summary
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.page.Execute(w, page); err != nil {
		logger.FromContext(r.Context()).Error("Failed to render dashboard", "error", err)
	}
}

func (h *DashboardHandler) HandleCreateInvestmentForm(w http.ResponseWriter, r *http.Request) {
	in, err := investmentInputFromForm(r)
	if err == nil {
		_, err = h.investmentService.CreateInvestment(r.Context(), in)
	}
	h.redirectAfterAction(w, r, "Investment created.", err)
}

func (h *DashboardHandler) HandleUpdateInvestmentForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err == nil {
		var u models.InvestmentUpdate
		if u, err = investmentUpdateFromForm(r); err == nil {
			_, err = h.investmentService.UpdateInvestment(r.Context(), id, u)
		}
	}
	h.redirectAfterAction(w, r, "Investment updated.", err)
}

func (h *DashboardHandler) HandleDeleteInvestmentForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err == nil {
		var removed bool
		removed, err = h.investmentService.DeleteInvestment(r.Context(), id)
		if err == nil && !removed {
			err = services.ErrNotFound
		}
	}
	h.redirectAfterAction(w, r, "Investment deleted.", err)
}

func (h *DashboardHandler) HandleCreateExitForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err == nil {
		var in models.ExitDetailsInput
		if in, err = exitInputFromForm(r, id); err == nil {
			_, err = h.exitService.CreateExitDetails(r.Context(), in)
		}
	}
	h.redirectAfterAction(w, r, "Exit recorded.", err)
}

func (h *DashboardHandler) HandleDeleteExitForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err == nil {
		err = h.exitService.DeleteExitDetails(r.Context(), id)
	}
	h.redirectAfterAction(w, r, "Exit deleted.", err)
}

// redirectAfterAction sends the browser back to the dashboard with a notice
// on success or an error message on failure.
func (h *DashboardHandler) redirectAfterAction(w http.ResponseWriter, r *http.Request, notice string, err error) {
	q := url.Values{}
	if err != nil {
		logger.FromContext(r.Context()).Warn("Dashboard action failed", "path", r.URL.Path, "error", err)
		q.Set("error", "Action failed: "+userMessage(err))
	} else {
		q.Set("notice", notice)
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}
