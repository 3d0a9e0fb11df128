package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is a discount code. Codes are stored upper-case.
type Coupon struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code        string           `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	Type        enums.CouponType `gorm:"column:type;not null"`
	Value       decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	Description *string          `gorm:"column:description"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
