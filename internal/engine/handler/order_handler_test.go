package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/vendora/wholesale-engine/internal/engine/service"
	"github.com/vendora/wholesale-engine/internal/engine/testutil"
	"github.com/vendora/wholesale-engine/internal/middleware"
	"github.com/google/uuid"
)

func setupEngineTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil)
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/wholesale")

	orders := api.Group("/purchase-orders")
	orders.GET("", handlers.Order.List)
	orders.POST("", handlers.Order.Create)
	orders.GET("/:id", handlers.Order.Get)
	orders.PUT("/:id/items", handlers.Order.UpdateItems)
	orders.PUT("/:id/status", handlers.Order.Transition)
	orders.POST("/:id/cancel", handlers.Order.Cancel)
	orders.DELETE("/:id", handlers.Order.Delete)
	orders.POST("/:id/payments", handlers.Payment.Record)
	orders.GET("/:id/payments", handlers.Payment.List)

	inventory := api.Group("/inventory")
	inventory.GET("", handlers.Inventory.List)
	inventory.GET("/atp", handlers.Inventory.ATP)
	inventory.GET("/movements", handlers.Inventory.Movements)
	inventory.POST("/adjust", middleware.RequireRole("wholesale_admin"), handlers.Inventory.Adjust)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

type testFixture struct {
	VendorID   string
	SupplierID string
	CustomerID string
	LocationID string
	ProductA   string
	ProductB   string
}

func newFixture() testFixture {
	return testFixture{
		VendorID:   uuid.NewString(),
		SupplierID: uuid.NewString(),
		CustomerID: uuid.NewString(),
		LocationID: uuid.NewString(),
		ProductA:   uuid.NewString(),
		ProductB:   uuid.NewString(),
	}
}

func (f testFixture) inboundBody(items []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"vendor_id":   f.VendorID,
		"po_type":     "inbound",
		"supplier_id": f.SupplierID,
		"location_id": f.LocationID,
		"items":       items,
	}
}

func (f testFixture) outboundBody(items []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"vendor_id":   f.VendorID,
		"po_type":     "outbound",
		"customer_id": f.CustomerID,
		"location_id": f.LocationID,
		"items":       items,
	}
}

func createPO(t *testing.T, env *testutil.TestEnv, token string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wholesale/purchase-orders", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create PO: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func transitionPO(t *testing.T, env *testutil.TestEnv, token, poID, status string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/status",
		map[string]interface{}{"status": status}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("transition to %s: expected 200, got %d: %s", status, w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func stockOf(t *testing.T, env *testutil.TestEnv, productID, locationID string) int {
	t.Helper()
	var record entity.InventoryRecord
	err := env.DB.Where("product_id = ? AND location_id = ?", productID, locationID).First(&record).Error
	if err != nil {
		return 0
	}
	return record.Quantity
}

func activeReservations(t *testing.T, env *testutil.TestEnv, poID string) int64 {
	t.Helper()
	var count int64
	env.DB.Model(&entity.InventoryReservation{}).
		Where("reference_id = ? AND status = ?", poID, entity.ReservationActive).Count(&count)
	return count
}

// TestCreateInboundDraft 创建inbound草稿：单号、金额、状态
func TestCreateInboundDraft(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.inboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 10, "unit_price": 2.5},
		{"product_id": f.ProductB, "quantity": 4, "unit_price": 10.0},
	}))

	if data["status"] != "draft" {
		t.Fatalf("expected status draft, got %v", data["status"])
	}
	if data["po_number"] != "PO-000001" {
		t.Fatalf("expected po_number PO-000001, got %v", data["po_number"])
	}
	if data["subtotal"].(float64) != 65.0 {
		t.Fatalf("expected subtotal 65, got %v", data["subtotal"])
	}
	if data["total"].(float64) != 65.0 {
		t.Fatalf("expected total 65, got %v", data["total"])
	}
	// inbound 不产生预留
	if n := activeReservations(t, env, data["id"].(string)); n != 0 {
		t.Fatalf("inbound PO should have no reservations, got %d", n)
	}
}

// TestCreateOutboundReservations outbound创建即生成软预留，不动台账
func TestCreateOutboundReservations(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()
	testutil.SeedStock(t, env.DB, f.ProductA, f.LocationID, 100)

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 30, "unit_price": 5.0},
	}))

	if data["po_number"] != "WS-000001" {
		t.Fatalf("expected po_number WS-000001, got %v", data["po_number"])
	}
	if n := activeReservations(t, env, data["id"].(string)); n != 1 {
		t.Fatalf("expected 1 active reservation, got %d", n)
	}
	if qty := stockOf(t, env, f.ProductA, f.LocationID); qty != 100 {
		t.Fatalf("reservation must not touch ledger, stock = %d", qty)
	}
}

// TestCreateValidation 方向与对手方不匹配、空明细
func TestCreateValidation(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	// outbound 带 supplier_id
	body := f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
	})
	body["supplier_id"] = f.SupplierID
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wholesale/purchase-orders", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// inbound 缺 supplier_id
	body2 := f.inboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
	})
	delete(body2, "supplier_id")
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wholesale/purchase-orders", body2, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w2.Code, w2.Body.String())
	}

	// 空明细
	body3 := f.inboundBody([]map[string]interface{}{})
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wholesale/purchase-orders", body3, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w3.Code, w3.Body.String())
	}
}

// TestInboundReceiveFlow 全链路：draft→sent→confirmed→in_transit→received，
// 收货后台账增加、流水落盘、settled_at 写入
func TestInboundReceiveFlow(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.inboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 25, "unit_price": 3.0},
	}))
	poID := data["id"].(string)

	for _, status := range []string{"sent", "confirmed", "in_transit"} {
		transitionPO(t, env, token, poID, status)
	}
	final := transitionPO(t, env, token, poID, "received")

	if final["status"] != "received" {
		t.Fatalf("expected received, got %v", final["status"])
	}
	if final["settled_at"] == nil {
		t.Fatal("settled_at should be set after settlement")
	}
	if qty := stockOf(t, env, f.ProductA, f.LocationID); qty != 25 {
		t.Fatalf("expected stock 25 after receive, got %d", qty)
	}

	var movement entity.StockMovement
	if err := env.DB.Where("reference_id = ?", poID).First(&movement).Error; err != nil {
		t.Fatalf("expected a stock movement for the PO: %v", err)
	}
	if movement.MovementType != entity.MovementPurchaseIn || movement.Quantity != 25 {
		t.Fatalf("unexpected movement %s/%d", movement.MovementType, movement.Quantity)
	}

	var item entity.POItem
	env.DB.Where("po_id = ?", poID).First(&item)
	if item.QuantityReceived != 25 {
		t.Fatalf("expected quantity_received 25, got %d", item.QuantityReceived)
	}
}

// TestOutboundFulfillFlow 发货结算：台账扣减，预留释放
func TestOutboundFulfillFlow(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()
	testutil.SeedStock(t, env.DB, f.ProductA, f.LocationID, 50)

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 20, "unit_price": 8.0},
	}))
	poID := data["id"].(string)

	for _, status := range []string{"sent", "confirmed", "in_transit"} {
		transitionPO(t, env, token, poID, status)
	}
	final := transitionPO(t, env, token, poID, "fulfilled")

	if final["status"] != "fulfilled" {
		t.Fatalf("expected fulfilled, got %v", final["status"])
	}
	if qty := stockOf(t, env, f.ProductA, f.LocationID); qty != 30 {
		t.Fatalf("expected stock 30 after fulfill, got %d", qty)
	}
	if n := activeReservations(t, env, poID); n != 0 {
		t.Fatalf("reservations should be released after fulfill, %d still active", n)
	}

	var movement entity.StockMovement
	env.DB.Where("reference_id = ? AND movement_type = ?", poID, entity.MovementSaleOut).First(&movement)
	if movement.Quantity != -20 {
		t.Fatalf("expected movement quantity -20, got %d", movement.Quantity)
	}
}

// TestFulfillInsufficientInventory 库存不足：409/10005，状态和台账原样不动
func TestFulfillInsufficientInventory(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()
	testutil.SeedStock(t, env.DB, f.ProductA, f.LocationID, 5)

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 8, "unit_price": 1.0},
	}))
	poID := data["id"].(string)

	for _, status := range []string{"sent", "confirmed", "in_transit"} {
		transitionPO(t, env, token, poID, status)
	}

	w := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/status",
		map[string]interface{}{"status": "fulfilled"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10005 {
		t.Fatalf("expected code 10005, got %v", resp["code"])
	}
	detail := resp["data"].(map[string]interface{})
	if detail["shortfall"].(float64) != 3 {
		t.Fatalf("expected shortfall 3, got %v", detail["shortfall"])
	}

	// 事务回滚：状态、台账、预留全部原样
	var po entity.PurchaseOrder
	env.DB.Where("id = ?", poID).First(&po)
	if po.Status != entity.POStatusInTransit {
		t.Fatalf("status should stay in_transit, got %s", po.Status)
	}
	if qty := stockOf(t, env, f.ProductA, f.LocationID); qty != 5 {
		t.Fatalf("stock should stay 5, got %d", qty)
	}
	if n := activeReservations(t, env, poID); n != 1 {
		t.Fatalf("reservation should stay active, got %d", n)
	}
}

// TestInvalidTransitions 跳步、终态不可变、终态与方向不匹配
func TestInvalidTransitions(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.inboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
	}))
	poID := data["id"].(string)

	// draft → confirmed 跳步
	w := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/status",
		map[string]interface{}{"status": "confirmed"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for skip, got %d", w.Code)
	}
	if resp := testutil.ParseResponse(w); resp["code"].(float64) != 10004 {
		t.Fatalf("expected code 10004, got %v", resp["code"])
	}

	for _, status := range []string{"sent", "confirmed", "in_transit"} {
		transitionPO(t, env, token, poID, status)
	}

	// inbound 不能 fulfilled
	w2 := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/status",
		map[string]interface{}{"status": "fulfilled"}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong terminal, got %d: %s", w2.Code, w2.Body.String())
	}

	transitionPO(t, env, token, poID, "received")

	// 终态后一切转换拒绝，包括取消
	w3 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wholesale/purchase-orders/"+poID+"/cancel", nil, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 cancelling terminal PO, got %d", w3.Code)
	}
}

// TestUpdateDraftItems 草稿明细整单替换：金额重算、预留重建
func TestUpdateDraftItems(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 10, "unit_price": 2.0},
	}))
	poID := data["id"].(string)

	w := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/items",
		map[string]interface{}{"items": []map[string]interface{}{
			{"product_id": f.ProductB, "quantity": 7, "unit_price": 4.0},
		}}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["subtotal"].(float64) != 28.0 {
		t.Fatalf("expected subtotal 28, got %v", updated["subtotal"])
	}

	// 旧预留释放，新预留指向新产品
	var reservations []entity.InventoryReservation
	env.DB.Where("reference_id = ? AND status = ?", poID, entity.ReservationActive).Find(&reservations)
	if len(reservations) != 1 || reservations[0].ProductID != f.ProductB {
		t.Fatalf("expected 1 active reservation on productB, got %+v", reservations)
	}

	// 非草稿不可编辑
	transitionPO(t, env, token, poID, "sent")
	w2 := testutil.DoRequest(env.Router, http.MethodPut,
		"/api/v1/wholesale/purchase-orders/"+poID+"/items",
		map[string]interface{}{"items": []map[string]interface{}{
			{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
		}}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 editing sent PO, got %d", w2.Code)
	}
}

// TestCancelReleasesReservations 取消释放预留，已有台账不回滚
func TestCancelReleasesReservations(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 15, "unit_price": 2.0},
	}))
	poID := data["id"].(string)
	transitionPO(t, env, token, poID, "sent")

	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wholesale/purchase-orders/"+poID+"/cancel", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cancelled := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if cancelled["status"] != "cancelled" {
		t.Fatalf("expected cancelled, got %v", cancelled["status"])
	}
	if n := activeReservations(t, env, poID); n != 0 {
		t.Fatalf("expected all reservations released, %d active", n)
	}
}

// TestDeleteDraftOnly 只有草稿可物理删除，级联清掉明细与预留
func TestDeleteDraftOnly(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()

	data := createPO(t, env, token, f.outboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 3, "unit_price": 1.0},
	}))
	poID := data["id"].(string)

	w := testutil.DoRequest(env.Router, http.MethodDelete,
		"/api/v1/wholesale/purchase-orders/"+poID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	env.DB.Model(&entity.POItem{}).Where("po_id = ?", poID).Count(&count)
	if count != 0 {
		t.Fatalf("expected items cascade-deleted, %d remain", count)
	}
	env.DB.Model(&entity.InventoryReservation{}).Where("reference_id = ?", poID).Count(&count)
	if count != 0 {
		t.Fatalf("expected reservations cascade-deleted, %d remain", count)
	}

	// 已发送的不可删除
	data2 := createPO(t, env, token, f.inboundBody([]map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
	}))
	transitionPO(t, env, token, data2["id"].(string), "sent")
	w2 := testutil.DoRequest(env.Router, http.MethodDelete,
		"/api/v1/wholesale/purchase-orders/"+data2["id"].(string), nil, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 deleting sent PO, got %d", w2.Code)
	}
}

// TestPONumberSequence 单号按 (vendor, po_type) 独立递增
func TestPONumberSequence(t *testing.T) {
	env := setupEngineTest(t)
	token := testutil.DefaultTestToken()
	f := newFixture()
	otherVendor := uuid.NewString()

	items := []map[string]interface{}{
		{"product_id": f.ProductA, "quantity": 1, "unit_price": 1.0},
	}

	for i := 1; i <= 3; i++ {
		data := createPO(t, env, token, f.inboundBody(items))
		expected := fmt.Sprintf("PO-%06d", i)
		if data["po_number"] != expected {
			t.Fatalf("expected %s, got %v", expected, data["po_number"])
		}
	}

	// 同 vendor 不同方向各自从1开始
	data := createPO(t, env, token, f.outboundBody(items))
	if data["po_number"] != "WS-000001" {
		t.Fatalf("expected WS-000001, got %v", data["po_number"])
	}

	// 另一个 vendor 的 inbound 也从1开始
	body := f.inboundBody(items)
	body["vendor_id"] = otherVendor
	data2 := createPO(t, env, token, body)
	if data2["po_number"] != "PO-000001" {
		t.Fatalf("expected PO-000001 for other vendor, got %v", data2["po_number"])
	}
}
