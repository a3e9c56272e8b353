package handler

import (
	"strconv"

	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/vendora/wholesale-engine/internal/engine/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	po, err := h.svc.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *OrderHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.POListParams{
		VendorID: c.Query("vendor_id"),
		POType:   c.Query("po_type"),
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		Size:     size,
	}
	pos, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": pos, "total": total, "page": page, "size": size})
}

func (h *OrderHandler) UpdateItems(c *gin.Context) {
	var req struct {
		Items []service.CreatePOItem `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	po, err := h.svc.UpdateDraftItems(c.Request.Context(), c.Param("id"), req.Items, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *OrderHandler) Transition(c *gin.Context) {
	var req struct {
		Status entity.POStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	po, err := h.svc.Transition(c.Request.Context(), c.Param("id"), req.Status, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	po, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
