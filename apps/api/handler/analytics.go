package handler

import (
	"strconv"

	"go-storefront/apps/api/middleware"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SellerDashboard(ctx *gin.Context) {
	d, err := h.Analytics.SellerDashboard(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, d)
}

func (h *Handler) SalesReport(ctx *gin.Context) {
	days, _ := strconv.Atoi(ctx.DefaultQuery("days", "30"))
	r, err := h.Analytics.SalesReport(ctx.Request.Context(), middleware.CurrentUser(ctx), days)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, r)
}

func (h *Handler) ProductAnalytics(ctx *gin.Context) {
	rows, err := h.Analytics.ProductAnalytics(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, rows)
}

func (h *Handler) AdminDashboard(ctx *gin.Context) {
	d, err := h.Analytics.AdminDashboard(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, d)
}

func (h *Handler) SalesTrends(ctx *gin.Context) {
	days, _ := strconv.Atoi(ctx.DefaultQuery("days", "30"))
	t, err := h.Analytics.SalesTrends(ctx.Request.Context(), middleware.CurrentUser(ctx), days)
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, t)
}
