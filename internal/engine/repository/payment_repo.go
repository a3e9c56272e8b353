package repository

import (
	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(tx *gorm.DB, p *entity.Payment) error {
	if err := tx.Create(p).Error; err != nil {
		return apperr.FromDB(err, "付款记录")
	}
	return nil
}

func (r *PaymentRepository) ListByPO(poID string) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.Where("po_id = ?", poID).Order("created_at").Find(&payments).Error
	return payments, err
}

// SumByPO 付款累计金额，冲正负数一并累加
func (r *PaymentRepository) SumByPO(poID string) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(amount), 0) as total
		FROM wholesale_payments
		WHERE po_id = ?
	`, poID).Scan(&result).Error
	if err != nil {
		return 0, apperr.FromDB(err, "付款记录")
	}
	return result.Total, nil
}

// DeleteByPO 草稿订单硬删除时连带删除付款记录
func (r *PaymentRepository) DeleteByPO(tx *gorm.DB, poID string) error {
	if err := tx.Where("po_id = ?", poID).Delete(&entity.Payment{}).Error; err != nil {
		return apperr.FromDB(err, "付款记录")
	}
	return nil
}
