package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/dto"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers/common"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
)

// ProfileHandler отвечает за профиль текущего пользователя. Учётные записи
// заводятся внешним identity provider'ом, здесь хранится только контактная
// строка получателя.
type ProfileHandler struct {
	profiles *repository.ProfileRepository
}

// NewProfileHandler создаёт экземпляр.
func NewProfileHandler(profiles *repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetMe возвращает профиль текущего пользователя.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			common.RespondNotFound(c, "профиль не найден")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMe обновляет отображаемое имя текущего пользователя.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			common.RespondNotFound(c, "профиль не найден")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	profile.FullName = req.FullName
	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, profile)
}
