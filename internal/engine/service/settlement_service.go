package service

import (
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"gorm.io/gorm"
)

// SettlementService 结算处理器：把订单终态的库存副作用和状态变更
// 做成一个原子单元。只能在 OrderService 的状态转换事务内调用。
type SettlementService struct {
	orderRepo       *repository.OrderRepository
	inventoryRepo   *repository.InventoryRepository
	reservationRepo *repository.ReservationRepository
}

func NewSettlementService(or *repository.OrderRepository, ir *repository.InventoryRepository, rr *repository.ReservationRepository) *SettlementService {
	return &SettlementService{orderRepo: or, inventoryRepo: ir, reservationRepo: rr}
}

// Receive 入库结算：逐行台账+qty、记流水、quantity_received=quantity。
// 任何一行失败整体回滚，订单状态保持不变。
func (s *SettlementService) Receive(tx *gorm.DB, po *entity.PurchaseOrder, userID string) error {
	for i := range po.Items {
		item := &po.Items[i]
		if _, err := s.inventoryRepo.Adjust(tx, item.ProductID, po.LocationID, item.Quantity); err != nil {
			return err
		}
		item.QuantityReceived = item.Quantity
		if err := s.orderRepo.UpdateItem(tx, item); err != nil {
			return err
		}
		movement := &entity.StockMovement{
			ProductID:     item.ProductID,
			LocationID:    po.LocationID,
			MovementType:  entity.MovementPurchaseIn,
			Quantity:      item.Quantity,
			ReferenceType: "PO",
			ReferenceID:   po.ID,
			ReferenceCode: po.PONumber,
			CreatedBy:     userID,
		}
		if err := s.inventoryRepo.CreateMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}

// Fulfill 出库结算：逐行台账−qty（可能报库存不足）、记流水、
// quantity_fulfilled=quantity、释放该行预留。同样整体成败。
func (s *SettlementService) Fulfill(tx *gorm.DB, po *entity.PurchaseOrder, userID string) error {
	for i := range po.Items {
		item := &po.Items[i]
		if _, err := s.inventoryRepo.Adjust(tx, item.ProductID, po.LocationID, -item.Quantity); err != nil {
			return err
		}
		item.QuantityFulfilled = item.Quantity
		if err := s.orderRepo.UpdateItem(tx, item); err != nil {
			return err
		}
		movement := &entity.StockMovement{
			ProductID:     item.ProductID,
			LocationID:    po.LocationID,
			MovementType:  entity.MovementSaleOut,
			Quantity:      -item.Quantity,
			ReferenceType: "PO",
			ReferenceID:   po.ID,
			ReferenceCode: po.PONumber,
			CreatedBy:     userID,
		}
		if err := s.inventoryRepo.CreateMovement(tx, movement); err != nil {
			return err
		}
		if err := s.reservationRepo.ReleaseForItem(tx, po.ID, item.ProductID, po.LocationID); err != nil {
			return err
		}
	}
	return nil
}
