package handler

import (
	"log"
	"net/http"

	"go-storefront/apps/api/middleware"
	"go-storefront/apps/api/service"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler binds the services onto the REST surface.
type Handler struct {
	Accounts  *service.AccountService
	Hierarchy *service.HierarchyService
	Catalog   *service.CatalogService
	Analytics *service.AnalyticsService
}

// RegisterRoutes wires /api/v1. Register, login and read-only catalog
// browsing are public; everything else sits behind the auth middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine, tokens *jwt.Manager, db *gorm.DB) {
	v1 := r.Group("/api/v1")

	public := v1.Group("/")
	public.Use(middleware.OptionalAuth(tokens, db))
	{
		public.POST("/users/register", h.Register)
		public.POST("/users/login", h.Login)

		public.GET("/categories", h.ListCategories)
		public.GET("/categories/:id/path", h.CategoryPath)
		public.GET("/categories/:id/products", h.CategoryProducts)
		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
		public.GET("/products/:id/images", h.ListImages)
	}

	authed := v1.Group("/")
	authed.Use(middleware.Auth(tokens, db))
	{
		authed.GET("/users/me", h.Profile)
		authed.PUT("/users/me", h.UpdateProfile)

		authed.POST("/products", h.CreateProduct)
		authed.PUT("/products/:id", h.UpdateProduct)
		authed.DELETE("/products/:id", h.DeleteProduct)
		authed.POST("/products/:id/record-sale", h.RecordSale)
		authed.POST("/products/:id/images", h.UploadImages)
		authed.POST("/product-images/:id/set-primary", h.SetPrimaryImage)

		authed.GET("/analytics/seller-dashboard", h.SellerDashboard)
		authed.GET("/analytics/sales-report", h.SalesReport)
		authed.GET("/analytics/product-analytics", h.ProductAnalytics)
		authed.GET("/analytics/admin-dashboard", h.AdminDashboard)
		authed.GET("/analytics/sales-trends", h.SalesTrends)

		adminOnly := authed.Group("/")
		adminOnly.Use(middleware.RequireRole("ADMIN"))
		{
			adminOnly.POST("/categories", h.CreateCategory)
			adminOnly.PUT("/categories/:id", h.UpdateCategory)
			adminOnly.DELETE("/categories/:id", h.DeleteCategory)
		}
	}
}

// fail maps the service error taxonomy onto HTTP statuses. Errors outside
// the taxonomy are storage or programming faults; those are logged and the
// caller only sees a generic message.
func fail(ctx *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		response.FieldError(ctx, http.StatusBadRequest, service.FieldOf(err), err.Error())
	case service.KindPermission:
		response.Error(ctx, http.StatusForbidden, err.Error())
	case service.KindConflict:
		response.FieldError(ctx, http.StatusConflict, service.FieldOf(err), err.Error())
	case service.KindNotFound:
		response.Error(ctx, http.StatusNotFound, err.Error())
	case service.KindCorruptHierarchy:
		log.Printf("hierarchy corruption detected: %v", err)
		response.Error(ctx, http.StatusInternalServerError, "category hierarchy is corrupt")
	default:
		log.Printf("internal error: %v", err)
		response.Error(ctx, http.StatusInternalServerError, "internal server error")
	}
}
