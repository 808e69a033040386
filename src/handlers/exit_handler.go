package handlers

import (
	"net/http"

	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/services"
	"github.com/fundledger/backend/src/utils"
)

type ExitHandler struct {
	exitService services.ExitService
}

func NewExitHandler(exitService services.ExitService) *ExitHandler {
	return &ExitHandler{exitService: exitService}
}

func (h *ExitHandler) HandleCreateExit(w http.ResponseWriter, r *http.Request) {
	var in models.ExitDetailsInput
	if !decodeJSONBody(w, r, &in) {
		return
	}
	exit, err := h.exitService.CreateExitDetails(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "record exit")
		return
	}
	utils.SendJSON(w, http.StatusCreated, exit)
}

func (h *ExitHandler) HandleUpdateExit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid exit ID", http.StatusBadRequest)
		return
	}
	var u models.ExitDetailsUpdate
	if !decodeJSONBody(w, r, &u) {
		return
	}
	exit, err := h.exitService.UpdateExitDetails(r.Context(), id, u)
	if err != nil {
		sendServiceError(w, r, err, "update exit")
		return
	}
	utils.SendJSON(w, http.StatusOK, exit)
}

func (h *ExitHandler) HandleDeleteExit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid exit ID", http.StatusBadRequest)
		return
	}
	if err := h.exitService.DeleteExitDetails(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "delete exit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
