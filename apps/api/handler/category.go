package handler

import (
	"net/http"
	"strconv"

	"go-storefront/apps/api/middleware"
	"go-storefront/apps/api/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		ParentID    *int64 `json:"parent_id"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := h.Hierarchy.CreateCategory(ctx.Request.Context(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Created(ctx, cat)
}

func (h *Handler) UpdateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ParentID    *int64 `json:"parent_id"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := h.Hierarchy.UpdateCategory(ctx.Request.Context(), id, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, cat)
}

func (h *Handler) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.Hierarchy.DeleteCategory(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, nil)
}

func (h *Handler) ListCategories(ctx *gin.Context) {
	cats, err := h.Hierarchy.ListCategories(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, cats)
}

func (h *Handler) CategoryPath(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	path, err := h.Hierarchy.FullPath(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, gin.H{"path": path})
}

func (h *Handler) CategoryProducts(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	products, err := h.Catalog.ProductsInCategoryTree(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, products)
}
