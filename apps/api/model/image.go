package model

import "time"

// ProductImage holds the URL handed back by the asset store. At most one
// image per product carries IsPrimary; the image service enforces it.
type ProductImage struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	ProductID int64  `gorm:"index;not null" json:"product_id"`
	ImageURL  string `gorm:"type:varchar(255);not null" json:"image_url"`
	AltText   string `gorm:"type:varchar(255)" json:"alt_text"`
	IsPrimary bool   `gorm:"default:false" json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
