package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the public routes. /healthz and /metrics are open;
// /accounts requires a bearer token for every method.
func NewRouter(accounts *AccountsHandler, tokens TokenParser, baseLogger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(baseLogger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Any("/accounts", RequireAuth(tokens), accounts.Dispatch)

	return router
}
