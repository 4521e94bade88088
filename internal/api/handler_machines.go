package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmtrack-backend/internal/model"
	"farmtrack-backend/internal/mw"
	"farmtrack-backend/internal/notification"
	"farmtrack-backend/internal/store"
)

// machineResponse is the machine projection returned to callers. The
// status is derived at response time, never stored.
type machineResponse struct {
	model.Machine
	Status string `json:"status"`
}

func newMachineResponse(m *model.Machine) machineResponse {
	return machineResponse{Machine: *m, Status: m.Status()}
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	user := mw.CurrentUser(c)

	machines, err := h.store.ListMachines(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]machineResponse, 0, len(machines))
	for i := range machines {
		responses = append(responses, newMachineResponse(&machines[i]))
	}
	c.JSON(http.StatusOK, responses)
}

type createMachineRequest struct {
	Name         string  `json:"name" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	CurrentHours float64 `json:"current_hours"`
	Interval     float64 `json:"maintenance_interval" binding:"required"`
}

// CreateMachine handles POST /api/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	machine, err := h.store.CreateMachine(c.Request.Context(), user.ID, req.Name, req.Type, req.CurrentHours, req.Interval)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newMachineResponse(machine))
}

type updateMachineRequest struct {
	Name         *string  `json:"name"`
	Type         *string  `json:"type"`
	CurrentHours *float64 `json:"current_hours"`
	Interval     *float64 `json:"maintenance_interval"`
}

// UpdateMachine handles PUT /api/machines/:machine_id.
func (h *Handler) UpdateMachine(c *gin.Context) {
	machineID, ok := uintParam(c, "machine_id")
	if !ok {
		return
	}
	var req updateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	machine, err := h.store.UpdateMachine(c.Request.Context(), user.ID, machineID, store.MachinePatch{
		Name:         req.Name,
		Type:         req.Type,
		CurrentHours: req.CurrentHours,
		Interval:     req.Interval,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.alertMachine(user.ID, machine)
	c.JSON(http.StatusOK, newMachineResponse(machine))
}

// DeleteMachine handles DELETE /api/machines/:machine_id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	machineID, ok := uintParam(c, "machine_id")
	if !ok {
		return
	}
	user := mw.CurrentUser(c)

	if err := h.store.DeleteMachine(c.Request.Context(), user.ID, machineID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// alertMachine queues a push alert when a machine crosses into the
// attention state.
func (h *Handler) alertMachine(userID uint, machine *model.Machine) {
	if h.alerts == nil || machine.Status() != model.MachineStatusAttention {
		return
	}
	h.alerts.Dispatch(notification.Alert{
		UserID:  userID,
		Message: fmt.Sprintf("%s is due for maintenance (%.0f h, threshold %.0f h)", machine.Name, machine.CurrentHours, machine.NextMaintenance),
	})
}
