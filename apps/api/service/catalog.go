package service

import (
	"context"
	"io"
	"log"
	"strings"

	"go-storefront/apps/api/model"
	"go-storefront/pkg/assets"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService covers product CRUD, listing, sale recording and images.
type CatalogService struct {
	db        *gorm.DB
	hierarchy *HierarchyService
	assets    assets.Store
	notifier  Enqueuer
}

func NewCatalogService(db *gorm.DB, hierarchy *HierarchyService, store assets.Store, notifier Enqueuer) *CatalogService {
	return &CatalogService{db: db, hierarchy: hierarchy, assets: store, notifier: notifier}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Sku         string
	CategoryID  int64
	Stock       int
	IsActive    *bool
	IsFeatured  *bool
	Brand       string
	Tags        string
}

type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *int64
	Stock       *int
	IsActive    *bool
	IsFeatured  *bool
	Brand       *string
	Tags        *string
}

// CreateProduct lists a new product for a seller.
func (s *CatalogService) CreateProduct(ctx context.Context, actor *model.User, in ProductInput) (*model.Product, error) {
	if !actor.IsSeller() {
		return nil, Permission("only sellers can create products")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, Validation("name", "name is required")
	}
	if strings.TrimSpace(in.Sku) == "" {
		return nil, Validation("sku", "sku is required")
	}
	if !in.Price.IsPositive() {
		return nil, Validation("price", "price must be greater than zero")
	}
	if in.Stock < 0 {
		return nil, Validation("stock_quantity", "stock quantity cannot be negative")
	}

	var cnt int64
	s.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", in.Sku).Count(&cnt)
	if cnt > 0 {
		return nil, Conflict("sku", "sku %q is already in use", in.Sku)
	}

	if _, err := s.hierarchy.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	active, featured := true, false
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if in.IsFeatured != nil {
		featured = *in.IsFeatured
	}

	p := &model.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price.Round(2),
		Sku:           in.Sku,
		CategoryID:    in.CategoryID,
		SellerID:      actor.ID,
		StockQuantity: in.Stock,
		IsActive:      active,
		IsFeatured:    featured,
		Brand:         in.Brand,
		Tags:          in.Tags,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateErr(err) {
			return nil, Conflict("sku", "sku %q is already in use", in.Sku)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) loadOwned(ctx context.Context, actor *model.User, productID int64) (*model.Product, error) {
	var p model.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		return nil, NotFound("product")
	}
	if p.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, Permission("you can only manage your own products")
	}
	return &p, nil
}

// UpdateProduct applies a partial update. Only the owning seller or an
// admin may touch a product; sales_count and seller are never writable.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor *model.User, productID int64, in ProductUpdate) (*model.Product, error) {
	p, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, Validation("name", "name is required")
		}
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, Validation("price", "price must be greater than zero")
		}
		updates["price"] = in.Price.Round(2)
	}
	if in.CategoryID != nil {
		if _, err := s.hierarchy.GetCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, Validation("stock_quantity", "stock quantity cannot be negative")
		}
		updates["stock_quantity"] = *in.Stock
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.Brand != nil {
		updates["brand"] = *in.Brand
	}
	if in.Tags != nil {
		updates["tags"] = *in.Tags
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeleteProduct removes a product and its images.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor *model.User, productID int64) error {
	p, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

// GetProduct returns one product with its images, primary first. Inactive
// products are hidden from everyone but the owner and admins.
func (s *CatalogService) GetProduct(ctx context.Context, viewer *model.User, productID int64) (*model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary desc, created_at asc")
		}).
		First(&p, productID).Error
	if err != nil {
		return nil, NotFound("product")
	}
	if !p.IsActive {
		if viewer == nil || (!viewer.IsAdmin() && viewer.ID != p.SellerID) {
			return nil, NotFound("product")
		}
	}
	return &p, nil
}

type ProductQuery struct {
	CategoryID *int64
	SellerID   *int64
	IsActive   *bool
	IsFeatured *bool
	Brand      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    *bool
	LowStock   *bool
	Search     string
	Ordering   string
	Page       int
	PageSize   int
}

// orderings maps accepted ordering keys to SQL. A leading dash means
// descending, mirroring the query-parameter convention.
var orderings = map[string]string{
	"price":        "price asc",
	"-price":       "price desc",
	"created_at":   "created_at asc",
	"-created_at":  "created_at desc",
	"sales_count":  "sales_count asc",
	"-sales_count": "sales_count desc",
	"name":         "name asc",
	"-name":        "name desc",
}

// ListProducts applies filters, substring search and ordering, returning a
// page of products plus the unpaged total. Non-staff viewers are restricted
// to active products regardless of the requested filter.
func (s *CatalogService) ListProducts(ctx context.Context, viewer *model.User, q ProductQuery) ([]model.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Product{})

	if viewer == nil || !viewer.IsAdmin() {
		query = query.Where("is_active = ?", true)
	} else if q.IsActive != nil {
		query = query.Where("is_active = ?", *q.IsActive)
	}

	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.SellerID != nil {
		query = query.Where("seller_id = ?", *q.SellerID)
	}
	if q.IsFeatured != nil {
		query = query.Where("is_featured = ?", *q.IsFeatured)
	}
	if q.Brand != "" {
		query = query.Where("brand = ?", q.Brand)
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if q.InStock != nil {
		if *q.InStock {
			query = query.Where("stock_quantity > 0")
		} else {
			query = query.Where("stock_quantity = 0")
		}
	}
	if q.LowStock != nil && *q.LowStock {
		query = query.Where("stock_quantity <= ?", model.LowStockThreshold)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where(
			"name LIKE ? OR description LIKE ? OR brand LIKE ? OR tags LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := orderings[q.Ordering]
	if !ok {
		order = "created_at desc"
	}

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var products []model.Product
	err := query.Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ProductsInCategoryTree returns the active products of a category and all
// of its descendants.
func (s *CatalogService) ProductsInCategoryTree(ctx context.Context, viewer *model.User, categoryID int64) ([]model.Product, error) {
	if _, err := s.hierarchy.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	ids, err := s.hierarchy.SubtreeIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	err = s.db.WithContext(ctx).
		Where("category_id IN ? AND is_active = ?", ids, true).
		Order("created_at desc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// RecordSale records a sale against stock. The stock check, decrement and
// sales-count increment commit atomically with the sale row: the decrement
// is a conditional update re-validating stock, so two concurrent sales can
// never drive stock below zero — the loser's transaction rolls back.
func (s *CatalogService) RecordSale(ctx context.Context, actor *model.User, productID int64, quantity int, buyerID *int64) (*model.ProductSale, error) {
	if quantity < 1 {
		return nil, Validation("quantity", "quantity must be at least 1")
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var p model.Product
	if err := tx.First(&p, productID).Error; err != nil {
		tx.Rollback()
		return nil, NotFound("product")
	}
	if quantity > p.StockQuantity {
		tx.Rollback()
		return nil, Validation("quantity", "only %d items available in stock", p.StockQuantity)
	}

	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", p.ID, quantity).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"sales_count":    gorm.Expr("sales_count + ?", quantity),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent sale won the stock between our read and the update.
		tx.Rollback()
		return nil, Validation("quantity", "insufficient stock")
	}

	sale := &model.ProductSale{
		ProductID:   p.ID,
		SellerID:    p.SellerID,
		BuyerID:     buyerID,
		Quantity:    quantity,
		PriceAtSale: p.Price,
	}
	if err := tx.Create(sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	remaining := p.StockQuantity - quantity
	if remaining <= model.LowStockThreshold && p.IsActive && s.notifier != nil {
		// Fire and forget: a failed alert is logged, never surfaced.
		if err := s.notifier.Enqueue(ctx, MailJob{Type: model.EmailTypeLowStockAlert, UserID: p.SellerID}); err != nil {
			log.Printf("low-stock alert enqueue failed for seller %d: %v", p.SellerID, err)
		}
	}

	return sale, nil
}

type ImagePayload struct {
	Reader  io.Reader
	Ext     string
	AltText string
}

// UploadImages stores payloads through the asset store and attaches them to
// the product. New images never arrive primary; promotion happens through
// SetPrimaryImage, where the single-primary invariant is checked.
func (s *CatalogService) UploadImages(ctx context.Context, actor *model.User, productID int64, payloads []ImagePayload) ([]model.ProductImage, error) {
	p, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, Validation("images", "at least one image is required")
	}

	out := make([]model.ProductImage, 0, len(payloads))
	for _, payload := range payloads {
		url, err := s.assets.Save(payload.Ext, payload.Reader)
		if err != nil {
			return nil, err
		}
		img := model.ProductImage{
			ProductID: p.ID,
			ImageURL:  url,
			AltText:   payload.AltText,
		}
		if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// SetPrimaryImage promotes one image to primary, demoting any previous one
// so at most a single primary exists per product.
func (s *CatalogService) SetPrimaryImage(ctx context.Context, actor *model.User, imageID int64) (*model.ProductImage, error) {
	var img model.ProductImage
	if err := s.db.WithContext(ctx).First(&img, imageID).Error; err != nil {
		return nil, NotFound("product image")
	}
	if _, err := s.loadOwned(ctx, actor, img.ProductID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ProductImage{}).
			Where("product_id = ? AND is_primary = ?", img.ProductID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&img).Update("is_primary", true).Error
	})
	if err != nil {
		return nil, err
	}
	img.IsPrimary = true
	return &img, nil
}

// ListImages returns a product's images, primary first.
func (s *CatalogService) ListImages(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var imgs []model.ProductImage
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary desc, created_at asc").
		Find(&imgs).Error
	if err != nil {
		return nil, err
	}
	return imgs, nil
}
