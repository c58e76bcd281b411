package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// ResultCheckerCredential is one serial/pin pair in the inventory pool.
// Every paid result-checker transaction claims exactly one row; when the
// pool is empty a fresh credential is synthesized from the transaction
// reference instead.
type ResultCheckerCredential struct {
	ID       uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExamType enums.ExamType `gorm:"column:exam_type;type:exam_type;not null;index:idx_credentials_pool"`
	ExamYear int            `gorm:"column:exam_year;not null;index:idx_credentials_pool"`
	Serial   string         `gorm:"column:serial;not null;unique"`
	Pin      string         `gorm:"column:pin;not null"`

	Sold          bool       `gorm:"column:sold;not null;default:false;index:idx_credentials_pool"`
	TransactionID *uuid.UUID `gorm:"column:transaction_id;type:uuid"`
	SoldAt        *time.Time `gorm:"column:sold_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
