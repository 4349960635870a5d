package ping

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 健康检查，启动自检和外部探活共用
func Ping() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "\r\nSuccess")
	}
}
