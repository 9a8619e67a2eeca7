package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"go-storefront/apps/api/middleware"
	"go-storefront/apps/api/service"
	"go-storefront/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ResRecordSale names the flow-control resource guarding sale recording,
// the one write path that gets hammered during promotions.
const ResRecordSale = "record_sale_api"

func (h *Handler) CreateProduct(ctx *gin.Context) {
	var req struct {
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Sku         string          `json:"sku" binding:"required"`
		CategoryID  int64           `json:"category_id" binding:"required"`
		Stock       int             `json:"stock_quantity"`
		IsActive    *bool           `json:"is_active"`
		IsFeatured  *bool           `json:"is_featured"`
		Brand       string          `json:"brand"`
		Tags        string          `json:"tags"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Catalog.CreateProduct(ctx.Request.Context(), middleware.CurrentUser(ctx), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Sku:         req.Sku,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
		Brand:       req.Brand,
		Tags:        req.Tags,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Created(ctx, p)
}

func (h *Handler) UpdateProduct(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		CategoryID  *int64           `json:"category_id"`
		Stock       *int             `json:"stock_quantity"`
		IsActive    *bool            `json:"is_active"`
		IsFeatured  *bool            `json:"is_featured"`
		Brand       *string          `json:"brand"`
		Tags        *string          `json:"tags"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Catalog.UpdateProduct(ctx.Request.Context(), middleware.CurrentUser(ctx), id, service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
		Brand:       req.Brand,
		Tags:        req.Tags,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}

func (h *Handler) DeleteProduct(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteProduct(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, nil)
}

func (h *Handler) GetProduct(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	p, err := h.Catalog.GetProduct(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}

func (h *Handler) ListProducts(ctx *gin.Context) {
	q := service.ProductQuery{
		Brand:    ctx.Query("brand"),
		Search:   ctx.Query("search"),
		Ordering: ctx.DefaultQuery("ordering", "-created_at"),
	}
	q.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	if v := ctx.Query("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.CategoryID = &id
		}
	}
	if v := ctx.Query("seller"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.SellerID = &id
		}
	}
	if v := ctx.Query("is_active"); v != "" {
		b := v == "true"
		q.IsActive = &b
	}
	if v := ctx.Query("featured"); v != "" {
		b := v == "true"
		q.IsFeatured = &b
	}
	if v := ctx.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MinPrice = &d
		}
	}
	if v := ctx.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MaxPrice = &d
		}
	}
	if v := ctx.Query("in_stock"); v != "" {
		b := v == "true"
		q.InStock = &b
	}
	if v := ctx.Query("low_stock"); v != "" {
		b := v == "true"
		q.LowStock = &b
	}

	products, total, err := h.Catalog.ListProducts(ctx.Request.Context(), middleware.CurrentUser(ctx), q)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, gin.H{"products": products, "total": total})
}

func (h *Handler) RecordSale(ctx *gin.Context) {
	e, b := sentinel.Entry(ResRecordSale, sentinel.WithTrafficType(base.Inbound))
	if b != nil {
		response.Error(ctx, http.StatusTooManyRequests, "system busy, please retry shortly")
		return
	}
	defer e.Exit()

	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.CurrentUser(ctx)
	var buyerID *int64
	if actor != nil {
		buyerID = &actor.ID
	}

	sale, err := h.Catalog.RecordSale(ctx.Request.Context(), actor, id, req.Quantity, buyerID)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Created(ctx, gin.H{
		"message":      "Sale recorded successfully.",
		"sale_id":      sale.ID,
		"total_amount": sale.TotalAmount(),
	})
}

func (h *Handler) UploadImages(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "multipart form required")
		return
	}

	altText := ctx.PostForm("alt_text")
	var payloads []service.ImagePayload
	var closers []func()
	defer func() {
		for _, close := range closers {
			close()
		}
	}()

	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			response.Error(ctx, http.StatusBadRequest, "unreadable image upload")
			return
		}
		closers = append(closers, func() { f.Close() })
		payloads = append(payloads, service.ImagePayload{
			Reader:  f,
			Ext:     filepath.Ext(fh.Filename),
			AltText: altText,
		})
	}

	images, err := h.Catalog.UploadImages(ctx.Request.Context(), middleware.CurrentUser(ctx), id, payloads)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Created(ctx, images)
}

func (h *Handler) SetPrimaryImage(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	img, err := h.Catalog.SetPrimaryImage(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, img)
}

func (h *Handler) ListImages(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	images, err := h.Catalog.ListImages(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, images)
}
