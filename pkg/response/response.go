package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Code  int         `json:"code"`
	Msg   string      `json:"msg"`
	Field string      `json:"field,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: 200,
		Msg:  "success",
		Data: data,
	})
}

func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: 201,
		Msg:  "created",
		Data: data,
	})
}

func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code: httpStatus,
		Msg:  msg,
	})
}

// FieldError reports a validation failure naming the offending field.
func FieldError(ctx *gin.Context, httpStatus int, field, msg string) {
	ctx.JSON(httpStatus, Response{
		Code:  httpStatus,
		Msg:   msg,
		Field: field,
	})
}
