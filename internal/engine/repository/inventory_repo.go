package repository

import (
	"errors"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Adjust 在行锁内对 (product, location) 施加有界增量，返回新数量。
// 记录不存在且 delta>0 时惰性建账；不存在且 delta<0 直接判库存不足。
// 必须在触发它的业务事务 tx 内调用，同键调整由行锁串行化。
func (r *InventoryRepository) Adjust(tx *gorm.DB, productID, locationID string, delta int) (int, error) {
	var rec entity.InventoryRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if delta < 0 {
				return 0, apperr.InsufficientInventory(productID, -delta)
			}
			rec = entity.InventoryRecord{
				ProductID:  productID,
				LocationID: locationID,
				Quantity:   delta,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return 0, apperr.FromDB(err, "库存记录")
			}
			return rec.Quantity, nil
		}
		return 0, apperr.FromDB(err, "库存记录")
	}

	newQty := rec.Quantity + delta
	if newQty < 0 {
		return 0, apperr.InsufficientInventory(productID, -newQty)
	}
	if err := tx.Model(&rec).Update("quantity", newQty).Error; err != nil {
		return 0, apperr.FromDB(err, "库存记录")
	}
	return newQty, nil
}

// OnHand 当前在库数量，记录不存在视为0
func (r *InventoryRepository) OnHand(productID, locationID string) (int, error) {
	var rec entity.InventoryRecord
	err := r.db.Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.FromDB(err, "库存记录")
	}
	return rec.Quantity, nil
}

func (r *InventoryRepository) CreateMovement(tx *gorm.DB, m *entity.StockMovement) error {
	if err := tx.Create(m).Error; err != nil {
		return apperr.FromDB(err, "库存流水")
	}
	return nil
}

type InventoryListParams struct {
	ProductID  string
	LocationID string
	Page       int
	Size       int
}

func (r *InventoryRepository) List(params InventoryListParams) ([]entity.InventoryRecord, int64, error) {
	query := r.db.Model(&entity.InventoryRecord{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.LocationID != "" {
		query = query.Where("location_id = ?", params.LocationID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var records []entity.InventoryRecord
	err := query.Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&records).Error
	return records, total, err
}

func (r *InventoryRepository) ListMovements(productID, locationID string, page, size int) ([]entity.StockMovement, int64, error) {
	query := r.db.Model(&entity.StockMovement{})
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	if locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var movements []entity.StockMovement
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&movements).Error
	return movements, total, err
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
