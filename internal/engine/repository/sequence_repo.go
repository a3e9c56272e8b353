package repository

import (
	"errors"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next 在事务内分配下一个单号。计数器行 FOR UPDATE，同一 (vendor, po_type)
// 的并发创建被串行化，不同 vendor 互不阻塞。事务回滚时号码随之回滚，
// 已提交的订单号因此无空洞。两个事务同时首次插入计数器行时，后提交者
// 撞唯一索引，映射为可重试的并发冲突。
func (r *SequenceRepository) Next(tx *gorm.DB, vendorID string, poType entity.POType) (int64, error) {
	var seq entity.PONumberSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ? AND po_type = ?", vendorID, poType).
		First(&seq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = entity.PONumberSequence{
				VendorID:   vendorID,
				POType:     poType,
				NextNumber: 2,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return 0, apperr.FromDB(err, "单号计数器")
			}
			return 1, nil
		}
		return 0, apperr.FromDB(err, "单号计数器")
	}

	allocated := seq.NextNumber
	if err := tx.Model(&seq).Update("next_number", allocated+1).Error; err != nil {
		return 0, apperr.FromDB(err, "单号计数器")
	}
	return allocated, nil
}
