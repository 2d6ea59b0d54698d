package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/dto"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers/common"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/validation"
)

// PreferenceHandler отвечает за подписки на оповещения.
type PreferenceHandler struct {
	prefs *service.PreferenceService
}

// NewPreferenceHandler создаёт экземпляр.
func NewPreferenceHandler(prefs *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// Upsert обрабатывает POST /api/preferences. Повторная отправка той же тройки
// (пользователь, виза, консульство) замещает существующую подписку.
func (h *PreferenceHandler) Upsert(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.PreferenceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dateStart, err := parseOptionalDate("date_start", req.DateStart)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	dateEnd, err := parseOptionalDate("date_end", req.DateEnd)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	pref, err := h.prefs.Upsert(c.Request.Context(), userID, service.UpsertPreferenceInput{
		VisaType:        req.VisaType,
		Consulate:       req.Consulate,
		DateStart:       dateStart,
		DateEnd:         dateEnd,
		Channels:        req.Channels,
		QuietHoursStart: req.QuietHoursStart,
		QuietHoursEnd:   req.QuietHoursEnd,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			common.RespondBadRequest(c, err.Error())
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, pref)
}

// ListMine обрабатывает GET /api/preferences.
func (h *PreferenceHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	prefs, err := h.prefs.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// Delete обрабатывает DELETE /api/preferences/:id.
func (h *PreferenceHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	prefID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.prefs.Delete(c.Request.Context(), prefID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrPreferenceNotFound):
			common.RespondNotFound(c, "подписка не найдена")
		case errors.Is(err, service.ErrNotPreferenceOwner):
			common.RespondForbidden(c, "нет прав на эту подписку")
		default:
			common.RespondInternalError(c, "")
		}
		return
	}

	common.RespondSuccess(c, http.StatusOK, "подписка удалена", nil)
}

// DeleteAll обрабатывает DELETE /api/preferences — отписка от всего разом.
func (h *PreferenceHandler) DeleteAll(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	if err := h.prefs.DeleteAllForUser(c.Request.Context(), userID); err != nil {
		common.RespondInternalError(c, "")
		return
	}

	common.RespondSuccess(c, http.StatusOK, "подписки удалены", nil)
}

func parseOptionalDate(name string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := validation.ParseDate(name, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
