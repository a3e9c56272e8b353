package entity

import "time"

// PONumberSequence 单号计数器，按 (vendor_id, po_type) 一行。
// 在创建订单的事务内 FOR UPDATE 递增，不同 vendor 互不阻塞。
type PONumberSequence struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VendorID   string    `json:"vendor_id" gorm:"type:uuid;not null;uniqueIndex:idx_wseq_vendor_type"`
	POType     POType    `json:"po_type" gorm:"size:10;not null;uniqueIndex:idx_wseq_vendor_type"`
	NextNumber int64     `json:"next_number" gorm:"not null;default:1"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PONumberSequence) TableName() string {
	return "wholesale_po_number_sequences"
}
