package handler

import (
	"net/http"

	"go-storefront/apps/api/middleware"
	"go-storefront/apps/api/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(ctx *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
		Role      string `json:"role"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		StoreName string `json:"store_name"`
		Phone     string `json:"phone"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Accounts.Register(ctx.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		StoreName: req.StoreName,
		Phone:     req.Phone,
	})
	if err != nil {
		fail(ctx, err)
		return
	}

	response.Created(ctx, gin.H{
		"message":  "User registered successfully.",
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := h.Accounts.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Don't reveal which half of the credential pair was wrong.
		if service.KindOf(err) == service.KindNotFound || service.KindOf(err) == service.KindPermission {
			response.Error(ctx, http.StatusUnauthorized, "invalid username or password")
			return
		}
		fail(ctx, err)
		return
	}

	response.Success(ctx, gin.H{
		"user_id": u.ID,
		"role":    u.Role,
		"token":   token,
	})
}

func (h *Handler) Profile(ctx *gin.Context) {
	response.Success(ctx, middleware.CurrentUser(ctx))
}

func (h *Handler) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Email          *string `json:"email"`
		FirstName      *string `json:"first_name"`
		LastName       *string `json:"last_name"`
		StoreName      *string `json:"store_name"`
		Phone          *string `json:"phone"`
		Address        *string `json:"address"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Accounts.UpdateProfile(ctx.Request.Context(), middleware.CurrentUser(ctx), service.ProfileUpdate{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		StoreName:      req.StoreName,
		Phone:          req.Phone,
		Address:        req.Address,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	response.Success(ctx, u)
}
