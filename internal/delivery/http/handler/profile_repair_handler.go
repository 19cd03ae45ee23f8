package handler

import (
	"net/http"

	"clinica-dental-backend/internal/usecase"
	"clinica-dental-backend/pkg/response"
)

type ProfileRepairHandler struct {
	repairUsecase usecase.ProfileRepairUsecase
}

func NewProfileRepairHandler(repairUsecase usecase.ProfileRepairUsecase) *ProfileRepairHandler {
	return &ProfileRepairHandler{
		repairUsecase: repairUsecase,
	}
}

// RepairProfiles runs the profile repair sweep over every user. The report
// is returned even when the sweep stopped early.
func (h *ProfileRepairHandler) RepairProfiles(w http.ResponseWriter, r *http.Request) {
	report, err := h.repairUsecase.RepairProfiles(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Profile repair stopped early", report)
		return
	}

	response.Success(w, http.StatusOK, "Profile repair completed", report)
}
