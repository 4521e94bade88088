package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"farmtrack-backend/internal/mw"
	"farmtrack-backend/internal/store"
)

type createMaintenanceRequest struct {
	MachineID    uint       `json:"machine_id" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	HoursReading *float64   `json:"hours_reading" binding:"required"`
	Cost         float64    `json:"cost"`
	Note         string     `json:"note"`
	Date         *time.Time `json:"date"`
}

// CreateMaintenance handles POST /api/maintenance. Recording a service
// also moves the parent machine's hours counter and threshold.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var req createMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	input := store.MaintenanceInput{
		Description:  req.Description,
		HoursReading: *req.HoursReading,
		Cost:         req.Cost,
		Note:         req.Note,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}

	record, _, err := h.store.RecordMaintenance(c.Request.Context(), user.ID, req.MachineID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListMaintenance handles GET /api/maintenance/:machine_id, most
// recent record first.
func (h *Handler) ListMaintenance(c *gin.Context) {
	machineID, ok := uintParam(c, "machine_id")
	if !ok {
		return
	}
	user := mw.CurrentUser(c)

	records, err := h.store.ListMaintenance(c.Request.Context(), user.ID, machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
