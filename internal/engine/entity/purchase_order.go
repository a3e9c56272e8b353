package entity

import (
	"time"
)

// POType 订单方向：inbound 向供应商采购入库，outbound 批发销售出库
type POType string

const (
	POTypeInbound  POType = "inbound"
	POTypeOutbound POType = "outbound"
)

func (t POType) Valid() bool {
	return t == POTypeInbound || t == POTypeOutbound
}

// POStatus 采购/批发订单状态
type POStatus string

const (
	POStatusDraft     POStatus = "draft"
	POStatusSent      POStatus = "sent"
	POStatusConfirmed POStatus = "confirmed"
	POStatusInTransit POStatus = "in_transit"
	POStatusReceived  POStatus = "received"
	POStatusFulfilled POStatus = "fulfilled"
	POStatusDelivered POStatus = "delivered"
	POStatusCancelled POStatus = "cancelled"
)

// ValidPOTransitions 状态转换表，表外的边一律拒绝。
// cancelled 可从任何非终态进入，由 CanTransitionTo 单独处理。
var ValidPOTransitions = map[POStatus][]POStatus{
	POStatusDraft:     {POStatusSent, POStatusCancelled},
	POStatusSent:      {POStatusConfirmed, POStatusCancelled},
	POStatusConfirmed: {POStatusInTransit, POStatusCancelled},
	POStatusInTransit: {POStatusReceived, POStatusFulfilled, POStatusDelivered, POStatusCancelled},
}

// IsTerminal 终态：received/fulfilled/delivered/cancelled
func (s POStatus) IsTerminal() bool {
	switch s {
	case POStatusReceived, POStatusFulfilled, POStatusDelivered, POStatusCancelled:
		return true
	}
	return false
}

func (s POStatus) CanTransitionTo(target POStatus) bool {
	for _, t := range ValidPOTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TerminalAllowed 终态与订单方向必须匹配：inbound 只能 received，
// outbound 只能 fulfilled，delivered 对两个方向都开放（承运商签收确认）。
func (t POType) TerminalAllowed(target POStatus) bool {
	switch target {
	case POStatusReceived:
		return t == POTypeInbound
	case POStatusFulfilled:
		return t == POTypeOutbound
	case POStatusDelivered:
		return true
	}
	return false
}

// SettlesInventory 进入该终态时是否触发库存结算
func (s POStatus) SettlesInventory() bool {
	return s == POStatusReceived || s == POStatusFulfilled || s == POStatusDelivered
}

// PurchaseOrder 采购/批发订单，聚合根
type PurchaseOrder struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PONumber     string     `json:"po_number" gorm:"size:50;not null;uniqueIndex:idx_wpo_vendor_number"`
	SequenceNo   int64      `json:"sequence_no" gorm:"not null"`
	VendorID     string     `json:"vendor_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_wpo_vendor_number"`
	POType       POType     `json:"po_type" gorm:"size:10;not null;index"`
	Status       POStatus   `json:"status" gorm:"size:20;not null;default:draft"`
	SupplierID   *string    `json:"supplier_id" gorm:"type:uuid;index"`
	CustomerID   *string    `json:"customer_id" gorm:"type:uuid;index"`
	LocationID   string     `json:"location_id" gorm:"type:uuid;not null;index"`
	PaymentTerms string     `json:"payment_terms" gorm:"size:50"`
	ExpectedDate *time.Time `json:"expected_date"`
	Subtotal     float64    `json:"subtotal" gorm:"type:decimal(12,2);not null;default:0"`
	Tax          float64    `json:"tax" gorm:"type:decimal(12,2);not null;default:0"`
	Shipping     float64    `json:"shipping" gorm:"type:decimal(12,2);not null;default:0"`
	Total        float64    `json:"total" gorm:"type:decimal(12,2);not null;default:0"`
	SettledAt    *time.Time `json:"settled_at"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`

	Items    []POItem  `json:"items,omitempty" gorm:"foreignKey:POID"`
	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:POID"`
}

func (PurchaseOrder) TableName() string {
	return "wholesale_purchase_orders"
}

// RecalcTotals 按明细重算 subtotal/total，total 永不直接赋值
func (po *PurchaseOrder) RecalcTotals() {
	var subtotal float64
	for _, item := range po.Items {
		subtotal += item.LineTotal
	}
	po.Subtotal = subtotal
	po.Total = subtotal + po.Tax + po.Shipping
}

// POItem 订单明细
type POItem struct {
	ID                string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	POID              string    `json:"po_id" gorm:"type:uuid;not null;index"`
	ProductID         string    `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity          int       `json:"quantity" gorm:"not null"`
	UnitPrice         float64   `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	LineTotal         float64   `json:"line_total" gorm:"type:decimal(12,2);not null"`
	QuantityReceived  int       `json:"quantity_received" gorm:"not null;default:0"`
	QuantityFulfilled int       `json:"quantity_fulfilled" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (POItem) TableName() string {
	return "wholesale_po_items"
}
