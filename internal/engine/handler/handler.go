package handler

import (
	"errors"
	"net/http"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/service"
	"github.com/gin-gonic/gin"
)

// Handlers 批发引擎HTTP处理器集合
type Handlers struct {
	Order     *OrderHandler
	Inventory *InventoryHandler
	Payment   *PaymentHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Order:     NewOrderHandler(services.Order),
		Inventory: NewInventoryHandler(services.Inventory),
		Payment:   NewPaymentHandler(services.Payment),
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": message})
}

// fail 按错误类别映射HTTP状态和业务码，附带出错实体信息
func fail(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	switch e.Kind {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": e.Message})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": e.Message})
	case apperr.KindInvalidTransition:
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": e.Message})
	case apperr.KindInsufficientInventory:
		c.JSON(http.StatusConflict, gin.H{
			"code":    10005,
			"message": e.Message,
			"data":    gin.H{"product_id": e.ProductID, "shortfall": e.Shortfall},
		})
	case apperr.KindConflict:
		// 唯一可整体重试的类别
		c.JSON(http.StatusConflict, gin.H{"code": 10006, "message": e.Message, "data": gin.H{"retryable": true}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": e.Message})
	}
}

func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if uid, ok := userID.(string); ok {
		return uid
	}
	return ""
}
