package repository

import "gorm.io/gorm"

// Repositories 批发引擎仓库集合
type Repositories struct {
	Order       *OrderRepository
	Inventory   *InventoryRepository
	Reservation *ReservationRepository
	Payment     *PaymentRepository
	Sequence    *SequenceRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:       NewOrderRepository(db),
		Inventory:   NewInventoryRepository(db),
		Reservation: NewReservationRepository(db),
		Payment:     NewPaymentRepository(db),
		Sequence:    NewSequenceRepository(db),
	}
}
