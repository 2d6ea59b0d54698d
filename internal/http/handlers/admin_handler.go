package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/dto"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers/common"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
)

// AdminHandler — операции модератора: очередь, решения, история, статистика.
type AdminHandler struct {
	moderation *service.ModerationService
	reports    *service.ReportService
	alerts     *repository.AlertRepository
	purge      *service.PurgeService
}

// NewAdminHandler создаёт экземпляр.
func NewAdminHandler(
	moderation *service.ModerationService,
	reports *service.ReportService,
	alerts *repository.AlertRepository,
	purge *service.PurgeService,
) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		reports:    reports,
		alerts:     alerts,
		purge:      purge,
	}
}

// ListReports обрабатывает GET /api/admin/reports?status=pending.
func (h *AdminHandler) ListReports(c *gin.Context) {
	status := c.DefaultQuery("status", models.ReportStatusPending)
	if _, ok := models.ValidReportStatuses[status]; !ok {
		common.RespondBadRequest(c, "некорректный статус")
		return
	}

	limit, offset := common.GetPagination(c)

	reports, err := h.moderation.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport обрабатывает GET /api/admin/reports/:id — заявка вместе
// с журналом решений и записями о доставке.
func (h *AdminHandler) GetReport(c *gin.Context) {
	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			common.RespondNotFound(c, "заявка не найдена")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	decisions, err := h.moderation.History(c.Request.Context(), reportID)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	alerts, err := h.alerts.ListByReport(c.Request.Context(), reportID)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":    report,
		"decisions": decisions,
		"alerts":    alerts,
	})
}

// Decide обрабатывает POST /api/admin/reports/:id/decision.
// Модератор — доверенный оператор, ошибки хранилища отдаются как есть.
func (h *AdminHandler) Decide(c *gin.Context) {
	moderatorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.DecisionRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.moderation.Decide(c.Request.Context(), reportID, moderatorID, req.Decision, req.ReasonCodes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			common.RespondBadRequest(c, err.Error())
		case errors.Is(err, repository.ErrReportNotFound):
			common.RespondNotFound(c, "заявка не найдена")
		case errors.Is(err, repository.ErrReportAlreadyDecided):
			common.RespondError(c, http.StatusConflict, "по заявке уже принято решение")
		default:
			common.RespondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// Stats обрабатывает GET /api/admin/stats — счётчики доставки и retention.
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	counts := make(map[string]int, 3)
	for _, status := range []string{models.AlertStatusPending, models.AlertStatusSent, models.AlertStatusFailed} {
		n, err := h.alerts.CountByStatus(ctx, status)
		if err != nil {
			common.RespondInternalError(c, "")
			return
		}
		counts[status] = n
	}

	purgePending, err := h.purge.PendingCount(ctx)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts":           counts,
		"purge_candidates": purgePending,
	})
}
