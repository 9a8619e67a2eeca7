package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSale is an immutable record. SellerID is copied from the product
// and PriceAtSale is the price snapshot taken when the sale was recorded,
// so later price edits never rewrite history.
type ProductSale struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	ProductID   int64           `gorm:"index;not null" json:"product_id"`
	SellerID    int64           `gorm:"index;not null" json:"seller_id"`
	BuyerID     *int64          `gorm:"index" json:"buyer_id,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_sale"`
	SaleDate    time.Time       `gorm:"index;autoCreateTime" json:"sale_date"`
}

func (ProductSale) TableName() string {
	return "product_sales"
}

func (s *ProductSale) TotalAmount() decimal.Decimal {
	return s.PriceAtSale.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
