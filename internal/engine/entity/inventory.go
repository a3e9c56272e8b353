package entity

import (
	"time"
)

// InventoryRecord 库存台账，(product_id, location_id) 唯一，数量永不为负。
// 只允许结算处理器和人工调整在行锁内修改。
type InventoryRecord struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID  string    `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_winv_product_location"`
	LocationID string    `json:"location_id" gorm:"type:uuid;not null;uniqueIndex:idx_winv_product_location"`
	Quantity   int       `json:"quantity" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (InventoryRecord) TableName() string {
	return "wholesale_inventory_records"
}

// ReservationStatus 预留状态
const (
	ReservationActive   = "active"
	ReservationReleased = "released"
)

// InventoryReservation 软预留：不扣减台账，只记录出库承诺。
// 仅在 outbound 订单创建时生成，释放恰好一次（发货或取消）。
type InventoryReservation struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID   string     `json:"product_id" gorm:"type:uuid;not null;index:idx_wres_product_location"`
	LocationID  string     `json:"location_id" gorm:"type:uuid;not null;index:idx_wres_product_location"`
	ReferenceID string     `json:"reference_id" gorm:"type:uuid;not null;index"` // 所属PO
	Quantity    int        `json:"quantity" gorm:"not null"`
	Status      string     `json:"status" gorm:"size:20;not null;default:active"`
	ReleasedAt  *time.Time `json:"released_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (InventoryReservation) TableName() string {
	return "wholesale_inventory_reservations"
}

// MovementType 库存流水类型
const (
	MovementPurchaseIn = "PURCHASE_IN" // 采购收货入库
	MovementSaleOut    = "SALE_OUT"    // 批发发货出库
	MovementAdjust     = "ADJUST"      // 人工调整
)

// StockMovement 库存流水，每次台账变动一条，只增不改
type StockMovement struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID     string    `json:"product_id" gorm:"type:uuid;not null;index"`
	LocationID    string    `json:"location_id" gorm:"type:uuid;not null;index"`
	MovementType  string    `json:"movement_type" gorm:"size:20;not null"`
	Quantity      int       `json:"quantity" gorm:"not null"` // 正=入，负=出
	ReferenceType string    `json:"reference_type" gorm:"size:20"` // PO, ADJUST
	ReferenceID   string    `json:"reference_id" gorm:"size:64"`
	ReferenceCode string    `json:"reference_code" gorm:"size:50"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedBy     string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "wholesale_stock_movements"
}
