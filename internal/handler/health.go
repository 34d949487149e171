package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minieshop/go-shop-client/internal/store"
)

type HealthHandler struct {
	st *store.Store
}

func NewHealthHandler(st *store.Store) *HealthHandler {
	return &HealthHandler{st: st}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	if err := h.st.DB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "store": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "connected"})
}
