package handler

import (
	"net/http"

	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler отдаёт агрегаты для панели администратора
type AdminHandler struct {
	statsService service.StatsServiceInterface
}

func NewAdminHandler(statsService service.StatsServiceInterface) *AdminHandler {
	return &AdminHandler{statsService: statsService}
}

// GetDashboardStats обрабатывает GET /api/admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.statsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
