package entity

import "time"

// Payment 付款记录，只追加不修改；冲正按约定记负数金额。
// 与订单状态完全解耦，任何状态下都可记账。
type Payment struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	POID            string    `json:"purchase_order_id" gorm:"type:uuid;not null;index"`
	Amount          float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method          string    `json:"method" gorm:"size:30;not null"`
	ReferenceNumber string    `json:"reference_number" gorm:"size:100"`
	CreatedBy       string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "wholesale_payments"
}
