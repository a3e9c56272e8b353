package handler

import (
	"github.com/vendora/wholesale-engine/internal/engine/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Record(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	payment, err := h.svc.Record(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, payment)
}

// List 付款明细与累计金额一起返回
func (h *PaymentHandler) List(c *gin.Context) {
	payments, total, err := h.svc.ListWithTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": payments, "paid_total": total})
}
