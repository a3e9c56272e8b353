package repository

import (
	"time"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateBatch 批量创建预留，与订单明细同事务写入
func (r *ReservationRepository) CreateBatch(tx *gorm.DB, reservations []entity.InventoryReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	if err := tx.Create(&reservations).Error; err != nil {
		return apperr.FromDB(err, "库存预留")
	}
	return nil
}

// ReleaseByPO 释放某订单全部 active 预留。幂等：第二次调用命中0行，不报错。
func (r *ReservationRepository) ReleaseByPO(tx *gorm.DB, poID string) error {
	now := time.Now()
	err := tx.Model(&entity.InventoryReservation{}).
		Where("reference_id = ? AND status = ?", poID, entity.ReservationActive).
		Updates(map[string]interface{}{"status": entity.ReservationReleased, "released_at": now}).Error
	if err != nil {
		return apperr.FromDB(err, "库存预留")
	}
	return nil
}

// ReleaseForItem 释放某订单中某产品的预留（发货结算逐行释放）
func (r *ReservationRepository) ReleaseForItem(tx *gorm.DB, poID, productID, locationID string) error {
	now := time.Now()
	err := tx.Model(&entity.InventoryReservation{}).
		Where("reference_id = ? AND product_id = ? AND location_id = ? AND status = ?",
			poID, productID, locationID, entity.ReservationActive).
		Updates(map[string]interface{}{"status": entity.ReservationReleased, "released_at": now}).Error
	if err != nil {
		return apperr.FromDB(err, "库存预留")
	}
	return nil
}

// ActiveSum 某 (product, location) 的 active 预留总量，available-to-promise 的减项
func (r *ReservationRepository) ActiveSum(productID, locationID string) (int, error) {
	var result struct{ Total int }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(quantity), 0) as total
		FROM wholesale_inventory_reservations
		WHERE product_id = ? AND location_id = ? AND status = ?
	`, productID, locationID, entity.ReservationActive).Scan(&result).Error
	if err != nil {
		return 0, apperr.FromDB(err, "库存预留")
	}
	return result.Total, nil
}

func (r *ReservationRepository) ListByPO(poID string) ([]entity.InventoryReservation, error) {
	var reservations []entity.InventoryReservation
	err := r.db.Where("reference_id = ?", poID).Order("created_at").Find(&reservations).Error
	return reservations, err
}

// DeleteByPO 草稿订单硬删除时连带删除预留
func (r *ReservationRepository) DeleteByPO(tx *gorm.DB, poID string) error {
	if err := tx.Where("reference_id = ?", poID).Delete(&entity.InventoryReservation{}).Error; err != nil {
		return apperr.FromDB(err, "库存预留")
	}
	return nil
}
