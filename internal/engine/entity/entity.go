package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移批发引擎全部表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 订单
		&PurchaseOrder{},
		&POItem{},
		&PONumberSequence{},

		// 库存
		&InventoryRecord{},
		&InventoryReservation{},
		&StockMovement{},

		// 付款
		&Payment{},
	)
}
