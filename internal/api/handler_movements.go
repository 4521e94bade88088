package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmtrack-backend/internal/model"
	"farmtrack-backend/internal/mw"
	"farmtrack-backend/internal/notification"
)

type createMovementRequest struct {
	SupplyID uint    `json:"supply_id" binding:"required"`
	Kind     string  `json:"kind" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Note     string  `json:"note"`
}

// CreateMovement handles POST /api/movements. Applying a movement also
// updates the parent supply's balance, atomically with the record.
func (h *Handler) CreateMovement(c *gin.Context) {
	var req createMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	movement, supply, err := h.store.ApplyMovement(c.Request.Context(), user.ID, req.SupplyID, req.Kind, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	h.alertSupply(user.ID, supply)
	c.JSON(http.StatusCreated, movement)
}

// ListMovements handles GET /api/movements/:supply_id, most recent
// record first.
func (h *Handler) ListMovements(c *gin.Context) {
	supplyID, ok := uintParam(c, "supply_id")
	if !ok {
		return
	}
	user := mw.CurrentUser(c)

	movements, err := h.store.ListMovements(c.Request.Context(), user.ID, supplyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// alertSupply queues a push alert when a supply's balance is at or
// below its minimum.
func (h *Handler) alertSupply(userID uint, supply *model.Supply) {
	if h.alerts == nil || supply.Status() != model.SupplyStatusLow {
		return
	}
	h.alerts.Dispatch(notification.Alert{
		UserID:  userID,
		Message: fmt.Sprintf("%s is low on stock (%.2f %s left, minimum %.2f)", supply.Name, supply.CurrentQuantity, supply.Unit, supply.MinimumQuantity),
	})
}
