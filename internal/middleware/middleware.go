package middleware

import (
	"github.com/gin-gonic/gin"
)

// Middleware 以Router形式挂载全局中间件，保证在业务路由之前注册
type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

func (m *Middleware) Load(g *gin.Engine) {
	g.Use(gin.Recovery())
	g.Use(RequestId())
	g.Use(Logger)
	g.Use(NoCache())
	g.Use(Options())
	g.Use(Secure())
}
