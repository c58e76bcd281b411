package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Product is a sellable data bundle or result checker. DefaultPrice is the
// public guest price and the fallback when no role floor exists.
type Product struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Type         enums.ProductType `gorm:"column:type;type:product_type;not null"`
	Network      *enums.Network    `gorm:"column:network;type:network"`
	Volume       *string           `gorm:"column:volume"`
	ExamType     *enums.ExamType   `gorm:"column:exam_type;type:exam_type"`
	ExamYear     *int              `gorm:"column:exam_year"`
	DefaultPrice money.Amount      `gorm:"column:default_price;type:bigint;not null"`
	Active       bool              `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
