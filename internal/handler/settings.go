package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minieshop/go-shop-client/internal/dto"
	"github.com/minieshop/go-shop-client/internal/prefs"
)

type SettingsHandler struct {
	settings *prefs.Store
}

func NewSettingsHandler(settings *prefs.Store) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	snap := h.settings.Current()
	c.JSON(http.StatusOK, dto.SettingsResponse{
		NotificationsEnabled: snap.NotificationsEnabled,
		DarkModeEnabled:      snap.DarkModeEnabled,
		Language:             snap.Language,
	})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.NotificationsEnabled != nil {
		if err := h.settings.SetNotifications(*req.NotificationsEnabled); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}
	if req.DarkModeEnabled != nil {
		if err := h.settings.SetDarkMode(*req.DarkModeEnabled); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}
	if req.Language != nil && *req.Language != "" {
		if err := h.settings.SetLanguage(*req.Language); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	h.Get(c)
}
