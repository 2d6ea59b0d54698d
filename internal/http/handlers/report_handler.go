package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers/common"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/storage"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/validation"
)

// sniffLen — сколько байт нужно filetype для определения типа.
const sniffLen = 261

// ReportHandler отвечает за приём и чтение заявок о слотах.
type ReportHandler struct {
	reports *service.ReportService
	storage *storage.ScreenshotStorage
}

// NewReportHandler создаёт экземпляр.
func NewReportHandler(reports *service.ReportService, storage *storage.ScreenshotStorage) *ReportHandler {
	return &ReportHandler{reports: reports, storage: storage}
}

// Submit обрабатывает POST /api/reports (multipart/form-data).
// Скриншот необязателен; принимаются только PNG и JPEG по содержимому файла,
// расширению имени не доверяем.
func (h *ReportHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	earliest, err := validation.ParseDate("earliest_date", c.PostForm("earliest_date"))
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var latest *time.Time
	if raw := c.PostForm("latest_date"); raw != "" {
		parsed, err := validation.ParseDate("latest_date", raw)
		if err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
		latest = &parsed
	}

	var screenshotPath *string
	fileHeader, err := c.FormFile("screenshot")
	switch {
	case err == nil:
		if fileHeader.Size > h.storage.MaxUploadBytes() {
			common.RespondError(c, http.StatusRequestEntityTooLarge, "скриншот слишком большой")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			common.RespondBadRequest(c, "не удалось прочитать скриншот")
			return
		}
		defer file.Close()

		head := make([]byte, sniffLen)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			common.RespondBadRequest(c, "не удалось прочитать скриншот")
			return
		}
		kind, _ := filetype.Match(head[:n])
		if kind.MIME.Value != "image/png" && kind.MIME.Value != "image/jpeg" {
			common.RespondBadRequest(c, "скриншот должен быть PNG или JPEG")
			return
		}

		path, err := h.storage.Save(c.Request.Context(), userID, fileHeader.Filename,
			io.MultiReader(bytes.NewReader(head[:n]), file))
		if err != nil {
			common.RespondInternalError(c, "не удалось сохранить скриншот")
			return
		}
		screenshotPath = &path
	case errors.Is(err, http.ErrMissingFile):
		// Заявка без доказательства допустима, просто стартует с базового балла.
	default:
		common.RespondBadRequest(c, "некорректная multipart форма")
		return
	}

	input := service.SubmitReportInput{
		ReporterID:     &userID,
		Consulate:      c.PostForm("consulate"),
		VisaType:       c.PostForm("visa_type"),
		EarliestDate:   earliest,
		LatestDate:     latest,
		ScreenshotPath: screenshotPath,
		Source:         c.PostForm("source"),
	}

	report, err := h.reports.SubmitReport(c.Request.Context(), input)
	if err != nil {
		// Заявка не сохранилась — осиротевший блоб убираем сразу.
		if screenshotPath != nil {
			_ = h.storage.Delete(c.Request.Context(), *screenshotPath)
		}
		if errors.Is(err, service.ErrInvalidInput) {
			common.RespondBadRequest(c, err.Error())
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListVerified обрабатывает GET /api/reports — публичная лента подтверждённых
// заявок, свежие первыми.
func (h *ReportHandler) ListVerified(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	reports, err := h.reports.ListVerified(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListMy обрабатывает GET /api/reports/my — заявки текущего пользователя
// с их статусами и баллами.
func (h *ReportHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)

	reports, err := h.reports.ListMyReports(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// Get обрабатывает GET /api/reports/:id. Неподтверждённая заявка видна
// только её автору и администратору; для остальных её не существует.
func (h *ReportHandler) Get(c *gin.Context) {
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

	if report.Status != models.ReportStatusVerified {
		userID, _ := common.CurrentUserID(c)
		role, _ := common.CurrentUserRole(c)
		isOwner := report.ReporterID != nil && *report.ReporterID == userID
		if !isOwner && role != models.RoleAdmin {
			common.RespondNotFound(c, "заявка не найдена")
			return
		}
	}

	c.JSON(http.StatusOK, report)
}
