package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind 错误类别
type Kind string

const (
	KindValidation            Kind = "validation"
	KindInvalidTransition     Kind = "invalid_transition"
	KindInsufficientInventory Kind = "insufficient_inventory"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindInternal              Kind = "internal"
)

// Error 引擎统一错误，携带类别和出错实体
type Error struct {
	Kind      Kind
	Message   string
	Entity    string // 出错实体的标识（PO号、product_id等）
	ProductID string // 仅 KindInsufficientInventory
	Shortfall int    // 仅 KindInsufficientInventory，缺口数量
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(entity, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// InsufficientInventory 库存不足，shortfall 为缺口数量（需求量 - 现有量）
func InsufficientInventory(productID string, shortfall int) *Error {
	return &Error{
		Kind:      KindInsufficientInventory,
		ProductID: productID,
		Shortfall: shortfall,
		Message:   fmt.Sprintf("库存不足: 产品 %s 缺少 %d 件", productID, shortfall),
	}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf 返回错误类别，非引擎错误归为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable 只有并发冲突类错误可以安全地整体重试
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}

// Postgres SQLSTATE：序列化失败、死锁、锁等待超时、唯一约束冲突
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// FromDB 将数据库层错误翻译为引擎错误类别。
// 找不到记录 → NotFound；锁/序列化/唯一键冲突 → Conflict（可重试）；其余原样包装。
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundf(entity, "%s 不存在", entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return &Error{Kind: KindConflict, Entity: entity, Message: "并发冲突，请重试", Err: err}
		case pgUniqueViolation:
			return &Error{Kind: KindConflict, Entity: entity, Message: "并发写入冲突，请重试", Err: err}
		}
	}
	return &Error{Kind: KindInternal, Entity: entity, Message: "数据库操作失败", Err: err}
}
