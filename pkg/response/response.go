package response

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

// 成功响应结构，保持 status/message/data 三段式
type ApiResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误响应统一使用 {"detail": "..."} 信封
type ErrorDetail struct {
	Detail string `json:"detail"`
}

func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Detail 按给定状态码返回错误信封
func Detail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, ErrorDetail{Detail: msg})
}

// BadRequest 客户端错误，参数校验失败或者交易所拒单
func BadRequest(c *gin.Context, msg string) {
	Detail(c, http.StatusBadRequest, msg)
}

// NotFound 资源不存在（仓位、分批订单等）
func NotFound(c *gin.Context, msg string) {
	Detail(c, http.StatusNotFound, msg)
}

// Unavailable 交易所适配器未配置或不可达
func Unavailable(c *gin.Context, msg string) {
	Detail(c, http.StatusServiceUnavailable, msg)
}

// TooManyRequests 请求命中防抖动拦截
func TooManyRequests(c *gin.Context) {
	Detail(c, http.StatusTooManyRequests, "too many requests")
}

// Internal 未预期的错误，对外只给出笼统描述，细节进日志
func Internal(c *gin.Context) {
	Detail(c, http.StatusInternalServerError, "internal server error")
}
