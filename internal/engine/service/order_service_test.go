package service

import (
	"context"
	"sync"
	"testing"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/vendora/wholesale-engine/internal/engine/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupOrderService(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewServices(repos, db, nil), db
}

func advanceToInTransit(t *testing.T, svc *Services, poID string) {
	t.Helper()
	ctx := context.Background()
	for _, status := range []entity.POStatus{entity.POStatusSent, entity.POStatusConfirmed, entity.POStatusInTransit} {
		if _, err := svc.Order.Transition(ctx, poID, status, "tester"); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
}

// TestSettlementAtomicity 多明细结算中途失败，整个事务回滚：
// 已扣减的明细恢复，状态不动，预留保持 active
func TestSettlementAtomicity(t *testing.T) {
	svc, db := setupOrderService(t)
	ctx := context.Background()

	vendorID := uuid.NewString()
	customerID := uuid.NewString()
	locationID := uuid.NewString()
	productA := uuid.NewString()
	productB := uuid.NewString()

	// A 库存充足，B 完全没有
	testutil.SeedStock(t, db, productA, locationID, 50)

	po, err := svc.Order.Create(ctx, CreatePORequest{
		VendorID:   vendorID,
		POType:     entity.POTypeOutbound,
		CustomerID: &customerID,
		LocationID: locationID,
		Items: []CreatePOItem{
			{ProductID: productA, Quantity: 10, UnitPrice: 1},
			{ProductID: productB, Quantity: 5, UnitPrice: 1},
		},
	}, "tester")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToInTransit(t, svc, po.ID)

	_, err = svc.Order.Transition(ctx, po.ID, entity.POStatusFulfilled, "tester")
	if apperr.KindOf(err) != apperr.KindInsufficientInventory {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}

	var record entity.InventoryRecord
	if err := db.Where("product_id = ? AND location_id = ?", productA, locationID).First(&record).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if record.Quantity != 50 {
		t.Fatalf("productA deduction must be rolled back, stock = %d", record.Quantity)
	}

	var reloaded entity.PurchaseOrder
	db.Where("id = ?", po.ID).First(&reloaded)
	if reloaded.Status != entity.POStatusInTransit {
		t.Fatalf("status must stay in_transit, got %s", reloaded.Status)
	}
	if reloaded.SettledAt != nil {
		t.Fatal("settled_at must stay empty after failed settlement")
	}

	var active int64
	db.Model(&entity.InventoryReservation{}).
		Where("reference_id = ? AND status = ?", po.ID, entity.ReservationActive).Count(&active)
	if active != 2 {
		t.Fatalf("expected 2 active reservations, got %d", active)
	}

	var movements int64
	db.Model(&entity.StockMovement{}).Where("reference_id = ?", po.ID).Count(&movements)
	if movements != 0 {
		t.Fatalf("expected no movements after rollback, got %d", movements)
	}
}

// TestConcurrentPONumbering 并发创建订单，行锁序列化取号，单号不重不漏
func TestConcurrentPONumbering(t *testing.T) {
	svc, _ := setupOrderService(t)
	ctx := context.Background()

	vendorID := uuid.NewString()
	supplierID := uuid.NewString()
	locationID := uuid.NewString()
	productID := uuid.NewString()

	req := CreatePORequest{
		VendorID:   vendorID,
		POType:     entity.POTypeInbound,
		SupplierID: &supplierID,
		LocationID: locationID,
		Items:      []CreatePOItem{{ProductID: productID, Quantity: 1, UnitPrice: 1}},
	}

	// 先串行创建一单，让计数器行就位，避开首插竞态
	first, err := svc.Order.Create(ctx, req, "tester")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.PONumber != "PO-000001" {
		t.Fatalf("expected PO-000001, got %s", first.PONumber)
	}

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := make(map[string]bool)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			po, err := svc.Order.Create(ctx, req, "tester")
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if numbers[po.PONumber] {
				t.Errorf("duplicate PO number %s", po.PONumber)
			}
			numbers[po.PONumber] = true
		}()
	}
	wg.Wait()

	if len(numbers) != workers {
		t.Fatalf("expected %d distinct PO numbers, got %d", workers, len(numbers))
	}
}

// TestDeliveredSettlesByDirection delivered 对两个方向都结算库存
func TestDeliveredSettlesByDirection(t *testing.T) {
	svc, db := setupOrderService(t)
	ctx := context.Background()

	locationID := uuid.NewString()
	productID := uuid.NewString()
	supplierID := uuid.NewString()

	po, err := svc.Order.Create(ctx, CreatePORequest{
		VendorID:   uuid.NewString(),
		POType:     entity.POTypeInbound,
		SupplierID: &supplierID,
		LocationID: locationID,
		Items:      []CreatePOItem{{ProductID: productID, Quantity: 12, UnitPrice: 2}},
	}, "tester")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToInTransit(t, svc, po.ID)

	done, err := svc.Order.Transition(ctx, po.ID, entity.POStatusDelivered, "tester")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if done.SettledAt == nil {
		t.Fatal("delivered must settle inventory")
	}

	var record entity.InventoryRecord
	if err := db.Where("product_id = ? AND location_id = ?", productID, locationID).First(&record).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if record.Quantity != 12 {
		t.Fatalf("expected stock 12 after delivered inbound, got %d", record.Quantity)
	}
}
