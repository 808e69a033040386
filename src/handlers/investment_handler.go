package handlers

import (
	"net/http"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/services"
	"github.com/fundledger/backend/src/utils"
)

type InvestmentHandler struct {
	investmentService services.InvestmentService
	exitService       services.ExitService
}

func NewInvestmentHandler(investmentService services.InvestmentService, exitService services.ExitService) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		exitService:       exitService,
	}
}

func (h *InvestmentHandler) HandleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.investmentService.ListInvestments(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "list investments")
		return
	}
	if investments == nil {
		investments = []models.Investment{}
	}
	utils.SendJSON(w, http.StatusOK, investments)
}

func (h *InvestmentHandler) HandleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var in models.InvestmentInput
	if !decodeJSONBody(w, r, &in) {
		return
	}
	inv, err := h.investmentService.CreateInvestment(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "create investment")
		return
	}
	utils.SendJSON(w, http.StatusCreated, inv)
}

// HandleGetInvestment answers null when the investment does not exist.
func (h *InvestmentHandler) HandleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid investment ID", http.StatusBadRequest)
		return
	}
	inv, err := h.investmentService.GetInvestment(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "get investment")
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvestmentHandler) HandleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid investment ID", http.StatusBadRequest)
		return
	}
	var u models.InvestmentUpdate
	if !decodeJSONBody(w, r, &u) {
		return
	}
	inv, err := h.investmentService.UpdateInvestment(r.Context(), id, u)
	if err != nil {
		sendServiceError(w, r, err, "update investment")
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvestmentHandler) HandleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid investment ID", http.StatusBadRequest)
		return
	}
	removed, err := h.investmentService.DeleteInvestment(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "delete investment")
		return
	}
	logger.FromContext(r.Context()).Info("Handled investment delete", "investmentID", id, "removed", removed)
	utils.SendJSON(w, http.StatusOK, map[string]bool{"success": removed})
}

// HandleGetInvestmentExit answers null when the investment has no exit.
func (h *InvestmentHandler) HandleGetInvestmentExit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid investment ID", http.StatusBadRequest)
		return
	}
	exit, err := h.exitService.GetExitDetailsByInvestment(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "get exit details")
		return
	}
	utils.SendJSON(w, http.StatusOK, exit)
}
