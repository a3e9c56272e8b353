package service

import (
	"context"

	"github.com/vendora/wholesale-engine/internal/engine/apperr"
	"github.com/vendora/wholesale-engine/internal/engine/entity"
	"github.com/vendora/wholesale-engine/internal/engine/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService 付款台账：只追加，与订单状态机完全解耦。
// 定金、尾款、终态后的补款都允许；冲正按约定记负数。
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	orderRepo   *repository.OrderRepository
	db          *gorm.DB
}

func NewPaymentService(pr *repository.PaymentRepository, or *repository.OrderRepository, db *gorm.DB) *PaymentService {
	return &PaymentService{paymentRepo: pr, orderRepo: or, db: db}
}

type RecordPaymentRequest struct {
	Amount          float64 `json:"amount" binding:"required"`
	Method          string  `json:"method" binding:"required"`
	ReferenceNumber string  `json:"reference_number"`
}

// Record 记一笔付款。订单必须存在，金额非零即可，不校验 sum ≤ total
//（超付/欠付是业务决策，不是台账违规）。
func (s *PaymentService) Record(ctx context.Context, poID string, req RecordPaymentRequest, userID string) (*entity.Payment, error) {
	if req.Amount == 0 {
		return nil, apperr.Validationf("付款金额不能为0")
	}
	if _, err := s.orderRepo.GetByID(poID); err != nil {
		return nil, err
	}

	payment := &entity.Payment{
		ID:              uuid.New().String(),
		POID:            poID,
		Amount:          req.Amount,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		CreatedBy:       userID,
	}
	if err := s.paymentRepo.Create(s.db, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListWithTotal 付款明细加累计金额，调用方据此推导已付/部分/未付
func (s *PaymentService) ListWithTotal(ctx context.Context, poID string) ([]entity.Payment, float64, error) {
	if _, err := s.orderRepo.GetByID(poID); err != nil {
		return nil, 0, err
	}
	payments, err := s.paymentRepo.ListByPO(poID)
	if err != nil {
		return nil, 0, apperr.FromDB(err, "付款记录")
	}
	total, err := s.paymentRepo.SumByPO(poID)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
