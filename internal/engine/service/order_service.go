package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderService 订单服务：创建、草稿编辑、状态转换、取消、删除。
// 每个写操作是一个数据库事务，失败时不留半成品。
type OrderService struct {
	orderRepo       *repository.OrderRepository
	reservationRepo *repository.ReservationRepository
	paymentRepo     *repository.PaymentRepository
	sequenceRepo    *repository.SequenceRepository
	settlement      *SettlementService
	inventory       *InventoryService
	db              *gorm.DB
}

func NewOrderService(repos *repository.Repositories, settlement *SettlementService, inventory *InventoryService, db *gorm.DB) *OrderService {
	return &OrderService{
		orderRepo:       repos.Order,
		reservationRepo: repos.Reservation,
		paymentRepo:     repos.Payment,
		sequenceRepo:    repos.Sequence,
		settlement:      settlement,
		inventory:       inventory,
		db:              db,
	}
}

// 单号前缀按订单方向区分
var poNumberPrefix = map[entity.POType]string{
	entity.POTypeInbound:  "PO",
	entity.POTypeOutbound: "WS",
}

type CreatePOItem struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"gte=0"`
}

type CreatePORequest struct {
	VendorID     string         `json:"vendor_id" binding:"required"`
	POType       entity.POType  `json:"po_type" binding:"required"`
	SupplierID   *string        `json:"supplier_id"`
	CustomerID   *string        `json:"customer_id"`
	LocationID   string         `json:"location_id" binding:"required"`
	PaymentTerms string         `json:"payment_terms"`
	ExpectedDate string         `json:"expected_date"` // YYYY-MM-DD
	Tax          float64        `json:"tax" binding:"gte=0"`
	Shipping     float64        `json:"shipping" binding:"gte=0"`
	Notes        string         `json:"notes"`
	Items        []CreatePOItem `json:"items" binding:"required,min=1"`
}

// validateCounterparty 方向与对手方必须一一对应：
// inbound 只带 supplier_id，outbound 只带 customer_id
func validateCounterparty(poType entity.POType, supplierID, customerID *string) error {
	switch poType {
	case entity.POTypeInbound:
		if supplierID == nil || *supplierID == "" {
			return apperr.Validationf("inbound 订单必须指定 supplier_id")
		}
		if customerID != nil && *customerID != "" {
			return apperr.Validationf("inbound 订单不能带 customer_id")
		}
	case entity.POTypeOutbound:
		if customerID == nil || *customerID == "" {
			return apperr.Validationf("outbound 订单必须指定 customer_id")
		}
		if supplierID != nil && *supplierID != "" {
			return apperr.Validationf("outbound 订单不能带 supplier_id")
		}
	default:
		return apperr.Validationf("无效的订单类型: %s", poType)
	}
	return nil
}

func validateItems(items []CreatePOItem) error {
	if len(items) == 0 {
		return apperr.Validationf("订单至少需要一条明细")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return apperr.Validationf("明细缺少 product_id")
		}
		if item.Quantity <= 0 {
			return apperr.Validationf("产品 %s 的数量必须大于0", item.ProductID)
		}
		if item.UnitPrice < 0 {
			return apperr.Validationf("产品 %s 的单价不能为负", item.ProductID)
		}
	}
	return nil
}

// Create 创建订单。单号分配、明细写入、outbound 预留生成在同一事务内。
func (s *OrderService) Create(ctx context.Context, req CreatePORequest, userID string) (*entity.PurchaseOrder, error) {
	if err := validateCounterparty(req.POType, req.SupplierID, req.CustomerID); err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		VendorID:     req.VendorID,
		POType:       req.POType,
		Status:       entity.POStatusDraft,
		SupplierID:   req.SupplierID,
		CustomerID:   req.CustomerID,
		LocationID:   req.LocationID,
		PaymentTerms: req.PaymentTerms,
		Tax:          req.Tax,
		Shipping:     req.Shipping,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	if req.ExpectedDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpectedDate)
		if err != nil {
			return nil, apperr.Validationf("无效的期望日期: %s", req.ExpectedDate)
		}
		po.ExpectedDate = &t
	}
	po.Items = buildItems(po.ID, req.Items)
	po.RecalcTotals()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := s.sequenceRepo.Next(tx, req.VendorID, req.POType)
		if err != nil {
			return err
		}
		po.SequenceNo = seq
		po.PONumber = fmt.Sprintf("%s-%06d", poNumberPrefix[req.POType], seq)

		if err := s.orderRepo.Create(tx, po); err != nil {
			return err
		}
		if po.POType == entity.POTypeOutbound {
			return s.reservationRepo.CreateBatch(tx, buildReservations(po))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if po.POType == entity.POTypeOutbound {
		s.invalidateATP(ctx, po)
	}
	return po, nil
}

func buildItems(poID string, items []CreatePOItem) []entity.POItem {
	result := make([]entity.POItem, 0, len(items))
	for _, item := range items {
		result = append(result, entity.POItem{
			ID:        uuid.New().String(),
			POID:      poID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: float64(item.Quantity) * item.UnitPrice,
		})
	}
	return result
}

func buildReservations(po *entity.PurchaseOrder) []entity.InventoryReservation {
	reservations := make([]entity.InventoryReservation, 0, len(po.Items))
	for _, item := range po.Items {
		reservations = append(reservations, entity.InventoryReservation{
			ID:          uuid.New().String(),
			ProductID:   item.ProductID,
			LocationID:  po.LocationID,
			ReferenceID: po.ID,
			Quantity:    item.Quantity,
			Status:      entity.ReservationActive,
		})
	}
	return reservations
}

func (s *OrderService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.orderRepo.GetByID(id)
}

func (s *OrderService) List(ctx context.Context, params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.orderRepo.List(params)
}

// UpdateDraftItems 整单替换草稿明细并重算金额。outbound 订单的旧预留
// 标记释放、新预留重新生成，全部在同一事务内。
func (s *OrderService) UpdateDraftItems(ctx context.Context, poID string, items []CreatePOItem, userID string) (*entity.PurchaseOrder, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var result *entity.PurchaseOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		po, err := s.orderRepo.GetByIDForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status != entity.POStatusDraft {
			return apperr.InvalidTransitionf("只有草稿订单可以编辑明细，当前状态: %s", po.Status)
		}

		po.Items = buildItems(po.ID, items)
		po.RecalcTotals()
		if err := s.orderRepo.ReplaceItems(tx, po.ID, po.Items); err != nil {
			return err
		}
		if err := tx.Model(&entity.PurchaseOrder{}).Where("id = ?", po.ID).
			Updates(map[string]interface{}{"subtotal": po.Subtotal, "total": po.Total}).Error; err != nil {
			return apperr.FromDB(err, "采购订单")
		}

		if po.POType == entity.POTypeOutbound {
			if err := s.reservationRepo.ReleaseByPO(tx, po.ID); err != nil {
				return err
			}
			if err := s.reservationRepo.CreateBatch(tx, buildReservations(po)); err != nil {
				return err
			}
		}
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.POType == entity.POTypeOutbound {
		s.invalidateATP(ctx, result)
	}
	return result, nil
}

// Transition 状态转换。转换表之外的边一律拒绝；进入结算终态时
// 库存副作用与状态变更在同一事务内完成，结算失败则状态不动。
func (s *OrderService) Transition(ctx context.Context, poID string, target entity.POStatus, userID string) (*entity.PurchaseOrder, error) {
	var result *entity.PurchaseOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		po, err := s.orderRepo.GetByIDForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status.IsTerminal() {
			return apperr.InvalidTransitionf("订单 %s 已是终态 %s", po.PONumber, po.Status)
		}
		if !po.Status.CanTransitionTo(target) {
			return apperr.InvalidTransitionf("订单 %s 不允许 %s → %s", po.PONumber, po.Status, target)
		}
		if target == entity.POStatusSent && len(po.Items) == 0 {
			return apperr.InvalidTransitionf("订单 %s 没有明细，不能发送", po.PONumber)
		}
		if target.IsTerminal() && target != entity.POStatusCancelled && !po.POType.TerminalAllowed(target) {
			return apperr.InvalidTransitionf("%s 订单不能进入 %s", po.POType, target)
		}

		switch {
		case target == entity.POStatusCancelled:
			if err := s.reservationRepo.ReleaseByPO(tx, po.ID); err != nil {
				return err
			}
		case target.SettlesInventory():
			if po.POType == entity.POTypeInbound {
				err = s.settlement.Receive(tx, po, userID)
			} else {
				err = s.settlement.Fulfill(tx, po, userID)
			}
			if err != nil {
				return err
			}
			now := time.Now()
			po.SettledAt = &now
		}

		po.Status = target
		if err := s.orderRepo.Update(tx, po); err != nil {
			return err
		}
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target == entity.POStatusCancelled || target.SettlesInventory() {
		s.invalidateATP(ctx, result)
	}
	return result, nil
}

// Cancel 取消订单：释放全部 active 预留（幂等），已结算部分不回滚
func (s *OrderService) Cancel(ctx context.Context, poID string, userID string) (*entity.PurchaseOrder, error) {
	return s.Transition(ctx, poID, entity.POStatusCancelled, userID)
}

// Delete 物理删除，仅草稿可用；明细、预留、付款记录级联删除
func (s *OrderService) Delete(ctx context.Context, poID string) error {
	var deleted *entity.PurchaseOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		po, err := s.orderRepo.GetByIDForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status != entity.POStatusDraft {
			return apperr.InvalidTransitionf("只有草稿订单可以删除，当前状态: %s", po.Status)
		}
		if err := s.reservationRepo.DeleteByPO(tx, po.ID); err != nil {
			return err
		}
		if err := s.paymentRepo.DeleteByPO(tx, po.ID); err != nil {
			return err
		}
		deleted = po
		return s.orderRepo.HardDelete(tx, po.ID)
	})
	if err != nil {
		return err
	}
	if deleted.POType == entity.POTypeOutbound {
		s.invalidateATP(ctx, deleted)
	}
	return nil
}

func (s *OrderService) invalidateATP(ctx context.Context, po *entity.PurchaseOrder) {
	for _, item := range po.Items {
		s.inventory.InvalidateATP(ctx, item.ProductID, po.LocationID)
	}
}
