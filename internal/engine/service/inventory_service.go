package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const atpCacheTTL = 30 * time.Second

// InventoryService 库存服务：台账查询、available-to-promise、人工调整、流水。
// rdb 可以为 nil（测试环境），此时 ATP 直接查库。
type InventoryService struct {
	repo            *repository.InventoryRepository
	reservationRepo *repository.ReservationRepository
	db              *gorm.DB
	rdb             *redis.Client
}

func NewInventoryService(repo *repository.InventoryRepository, rr *repository.ReservationRepository, db *gorm.DB, rdb *redis.Client) *InventoryService {
	return &InventoryService{repo: repo, reservationRepo: rr, db: db, rdb: rdb}
}

func (s *InventoryService) List(ctx context.Context, params repository.InventoryListParams) ([]entity.InventoryRecord, int64, error) {
	return s.repo.List(params)
}

func (s *InventoryService) ListMovements(ctx context.Context, productID, locationID string, page, size int) ([]entity.StockMovement, int64, error) {
	return s.repo.ListMovements(productID, locationID, page, size)
}

func atpCacheKey(productID, locationID string) string {
	return fmt.Sprintf("atp:%s:%s", productID, locationID)
}

// AvailableToPromise 在库数量减去 active 预留。可以为负（超卖预留），
// 负数是合法的可报告状态，不是错误。结果缓存30秒，写路径主动失效。
func (s *InventoryService) AvailableToPromise(ctx context.Context, productID, locationID string) (int, error) {
	if productID == "" || locationID == "" {
		return 0, apperr.Validationf("product_id 和 location_id 不能为空")
	}

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, atpCacheKey(productID, locationID)).Result(); err == nil {
			if atp, convErr := strconv.Atoi(cached); convErr == nil {
				return atp, nil
			}
		}
	}

	onHand, err := s.repo.OnHand(productID, locationID)
	if err != nil {
		return 0, err
	}
	reserved, err := s.reservationRepo.ActiveSum(productID, locationID)
	if err != nil {
		return 0, err
	}
	atp := onHand - reserved

	if s.rdb != nil {
		s.rdb.Set(ctx, atpCacheKey(productID, locationID), strconv.Itoa(atp), atpCacheTTL)
	}
	return atp, nil
}

// InvalidateATP 写路径调用，删除缓存键；rdb 为 nil 时为空操作
func (s *InventoryService) InvalidateATP(ctx context.Context, productID, locationID string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, atpCacheKey(productID, locationID))
}

type AdjustRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	LocationID string `json:"location_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"` // 正数增加，负数减少
	Reason     string `json:"reason" binding:"required"`
}

// Adjust 人工库存调整。与结算同样走行锁有界增量，不允许把台账调负。
func (s *InventoryService) Adjust(ctx context.Context, req AdjustRequest, userID string) (int, error) {
	if req.Quantity == 0 {
		return 0, apperr.Validationf("调整数量不能为0")
	}

	var newQty int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		qty, err := s.repo.Adjust(tx, req.ProductID, req.LocationID, req.Quantity)
		if err != nil {
			return err
		}
		newQty = qty
		movement := &entity.StockMovement{
			ProductID:     req.ProductID,
			LocationID:    req.LocationID,
			MovementType:  entity.MovementAdjust,
			Quantity:      req.Quantity,
			ReferenceType: "ADJUST",
			ReferenceID:   uuid.New().String(),
			Notes:         req.Reason,
			CreatedBy:     userID,
		}
		return s.repo.CreateMovement(tx, movement)
	})
	if err != nil {
		return 0, err
	}

	s.InvalidateATP(ctx, req.ProductID, req.LocationID)
	return newQty, nil
}
