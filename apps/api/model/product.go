package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the fixed stock level at or below which a product
// counts as low stock for alerts and filtering.
const LowStockThreshold = 10

type Product struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Sku           string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	CategoryID    int64           `gorm:"index;not null" json:"category_id"`
	SellerID      int64           `gorm:"index;not null" json:"seller_id"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	IsFeatured    bool            `gorm:"default:false" json:"is_featured"`
	SalesCount    int             `gorm:"not null;default:0" json:"sales_count"`
	Brand         string          `gorm:"type:varchar(100);index" json:"brand"`
	Tags          string          `gorm:"type:text" json:"tags"`

	Images []ProductImage `json:"images,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

func (p *Product) LowStock() bool {
	return p.StockQuantity <= LowStockThreshold
}
