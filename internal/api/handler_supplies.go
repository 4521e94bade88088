package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmtrack-backend/internal/model"
	"farmtrack-backend/internal/mw"
	"farmtrack-backend/internal/store"
)

// supplyResponse is the supply projection returned to callers, with
// the derived stock status.
type supplyResponse struct {
	model.Supply
	Status string `json:"status"`
}

func newSupplyResponse(s *model.Supply) supplyResponse {
	return supplyResponse{Supply: *s, Status: s.Status()}
}

// ListSupplies handles GET /api/supplies.
func (h *Handler) ListSupplies(c *gin.Context) {
	user := mw.CurrentUser(c)

	supplies, err := h.store.ListSupplies(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]supplyResponse, 0, len(supplies))
	for i := range supplies {
		responses = append(responses, newSupplyResponse(&supplies[i]))
	}
	c.JSON(http.StatusOK, responses)
}

type createSupplyRequest struct {
	Name            string  `json:"name" binding:"required"`
	Unit            string  `json:"unit" binding:"required"`
	CurrentQuantity float64 `json:"current_quantity"`
	MinimumQuantity float64 `json:"minimum_quantity"`
}

// CreateSupply handles POST /api/supplies.
func (h *Handler) CreateSupply(c *gin.Context) {
	var req createSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	supply, err := h.store.CreateSupply(c.Request.Context(), user.ID, req.Name, req.Unit, req.CurrentQuantity, req.MinimumQuantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSupplyResponse(supply))
}

type updateSupplyRequest struct {
	Name            *string  `json:"name"`
	Unit            *string  `json:"unit"`
	MinimumQuantity *float64 `json:"minimum_quantity"`
}

// UpdateSupply handles PUT /api/supplies/:supply_id. The quantity
// balance is not settable here; it only moves through movements.
func (h *Handler) UpdateSupply(c *gin.Context) {
	supplyID, ok := uintParam(c, "supply_id")
	if !ok {
		return
	}
	var req updateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := mw.CurrentUser(c)

	supply, err := h.store.UpdateSupply(c.Request.Context(), user.ID, supplyID, store.SupplyPatch{
		Name:            req.Name,
		Unit:            req.Unit,
		MinimumQuantity: req.MinimumQuantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSupplyResponse(supply))
}

// DeleteSupply handles DELETE /api/supplies/:supply_id.
func (h *Handler) DeleteSupply(c *gin.Context) {
	supplyID, ok := uintParam(c, "supply_id")
	if !ok {
		return
	}
	user := mw.CurrentUser(c)

	if err := h.store.DeleteSupply(c.Request.Context(), user.ID, supplyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
