package handler

import (
	"strconv"

	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/vendora/wholesale-engine/internal/engine/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.InventoryListParams{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Page:       page,
		Size:       size,
	}
	records, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": records, "total": total, "page": page, "size": size})
}

// ATP available-to-promise = 在库 − active预留，负数照实返回
func (h *InventoryHandler) ATP(c *gin.Context) {
	productID := c.Query("product_id")
	locationID := c.Query("location_id")
	atp, err := h.svc.AvailableToPromise(c.Request.Context(), productID, locationID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"product_id": productID, "location_id": locationID, "available_to_promise": atp})
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	newQty, err := h.svc.Adjust(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"product_id": req.ProductID, "location_id": req.LocationID, "quantity": newQty})
}

func (h *InventoryHandler) Movements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	movements, total, err := h.svc.ListMovements(c.Request.Context(),
		c.Query("product_id"), c.Query("location_id"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": movements, "total": total, "page": page, "size": size})
}
