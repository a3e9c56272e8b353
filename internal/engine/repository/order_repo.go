package repository

import (
	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(tx *gorm.DB, po *entity.PurchaseOrder) error {
	if err := tx.Create(po).Error; err != nil {
		return apperr.FromDB(err, "采购订单")
	}
	return nil
}

func (r *OrderRepository) GetByID(id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.Preload("Items").
		Where("id = ? AND deleted_at IS NULL", id).First(&po).Error
	if err != nil {
		return nil, apperr.FromDB(err, "采购订单")
	}
	return &po, nil
}

// GetByIDForUpdate 锁定订单行后加载，状态转换必须走这里，
// 并发的两次终态转换由行锁排队，后到者看到终态被拒。
func (r *OrderRepository) GetByIDForUpdate(tx *gorm.DB, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&po).Error
	if err != nil {
		return nil, apperr.FromDB(err, "采购订单")
	}
	if err := tx.Where("po_id = ?", id).Order("created_at").Find(&po.Items).Error; err != nil {
		return nil, apperr.FromDB(err, "订单明细")
	}
	return &po, nil
}

func (r *OrderRepository) Update(tx *gorm.DB, po *entity.PurchaseOrder) error {
	if err := tx.Save(po).Error; err != nil {
		return apperr.FromDB(err, "采购订单")
	}
	return nil
}

func (r *OrderRepository) UpdateItem(tx *gorm.DB, item *entity.POItem) error {
	if err := tx.Save(item).Error; err != nil {
		return apperr.FromDB(err, "订单明细")
	}
	return nil
}

// ReplaceItems 整单替换明细，仅草稿可用
func (r *OrderRepository) ReplaceItems(tx *gorm.DB, poID string, items []entity.POItem) error {
	if err := tx.Where("po_id = ?", poID).Delete(&entity.POItem{}).Error; err != nil {
		return apperr.FromDB(err, "订单明细")
	}
	if len(items) == 0 {
		return nil
	}
	if err := tx.Create(&items).Error; err != nil {
		return apperr.FromDB(err, "订单明细")
	}
	return nil
}

// HardDelete 草稿订单物理删除，明细一并删除
func (r *OrderRepository) HardDelete(tx *gorm.DB, poID string) error {
	if err := tx.Where("po_id = ?", poID).Delete(&entity.POItem{}).Error; err != nil {
		return apperr.FromDB(err, "订单明细")
	}
	if err := tx.Unscoped().Where("id = ?", poID).Delete(&entity.PurchaseOrder{}).Error; err != nil {
		return apperr.FromDB(err, "采购订单")
	}
	return nil
}

type POListParams struct {
	VendorID string
	POType   string
	Status   string
	Keyword  string
	Page     int
	Size     int
}

func (r *OrderRepository) List(params POListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.Model(&entity.PurchaseOrder{}).Where("deleted_at IS NULL")
	if params.VendorID != "" {
		query = query.Where("vendor_id = ?", params.VendorID)
	}
	if params.POType != "" {
		query = query.Where("po_type = ?", params.POType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("po_number ILIKE ?", kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var pos []entity.PurchaseOrder
	err := query.Preload("Items").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&pos).Error
	return pos, total, err
}

// DB 返回底层db用于事务
func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}
