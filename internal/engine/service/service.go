package service

import (
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 批发引擎服务集合
type Services struct {
	Order      *OrderService
	Settlement *SettlementService
	Inventory  *InventoryService
	Payment    *PaymentService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client) *Services {
	inventory := NewInventoryService(repos.Inventory, repos.Reservation, db, rdb)
	settlement := NewSettlementService(repos.Order, repos.Inventory, repos.Reservation)
	return &Services{
		Order:      NewOrderService(repos, settlement, inventory, db),
		Settlement: settlement,
		Inventory:  inventory,
		Payment:    NewPaymentService(repos.Payment, repos.Order, db),
	}
}
