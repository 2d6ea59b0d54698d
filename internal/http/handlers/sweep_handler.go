package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
)

// SweepHandler — ручной запуск sweep'ов внешним cron'ом или оператором.
// Оба эндпоинта идемпотентны и безопасны при пересечении с планировщиком.
type SweepHandler struct {
	alerts *service.AlertService
	purge  *service.PurgeService
}

// NewSweepHandler создаёт экземпляр.
func NewSweepHandler(alerts *service.AlertService, purge *service.PurgeService) *SweepHandler {
	return &SweepHandler{alerts: alerts, purge: purge}
}

// RunAlerts обрабатывает POST /api/worker/alerts/run.
func (h *SweepHandler) RunAlerts(c *gin.Context) {
	result, err := h.alerts.RunDispatch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunPurge обрабатывает POST /api/worker/purge/run.
func (h *SweepHandler) RunPurge(c *gin.Context) {
	result, err := h.purge.RunPurge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
