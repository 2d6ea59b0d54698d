package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/middleware"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/storage"
)

func TestReportHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil, storage: nil}
	r.POST("/reports", handler.Submit)

	req, _ := http.NewRequest("POST", "/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_ListMy_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil, storage: nil}
	r.GET("/reports/my", handler.ListMy)

	req, _ := http.NewRequest("GET", "/reports/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil, storage: nil}
	r.GET("/reports/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/reports/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// memReportStore — минимальное хранилище заявок для сквозного теста приёма.
type memReportStore struct {
	reports []*models.SlotReport
}

func (m *memReportStore) Create(ctx context.Context, report *models.SlotReport) error {
	report.ID = uuid.New()
	m.reports = append(m.reports, report)
	return nil
}

func (m *memReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SlotReport, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memReportStore) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.SlotReport, error) {
	return nil, nil
}

func (m *memReportStore) ListRecentVerified(ctx context.Context, limit, offset int) ([]models.SlotReport, error) {
	return nil, nil
}

func (m *memReportStore) CountVerifiedByReporter(ctx context.Context, reporterID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *memReportStore) CountSimilarSince(ctx context.Context, visaType, consulate string, since time.Time) (int, error) {
	return 0, nil
}

type memDecisionStore struct{}

func (m *memDecisionStore) Create(ctx context.Context, decision *models.VerificationDecision) error {
	return nil
}

// memProvisioner имитирует заведение строки профиля при первом касании.
type memProvisioner struct {
	profiles map[uuid.UUID]string
}

func (m *memProvisioner) EnsureExists(ctx context.Context, id uuid.UUID, email, role string) error {
	if m.profiles == nil {
		m.profiles = make(map[uuid.UUID]string)
	}
	m.profiles[id] = email
	return nil
}

// Пользователь, которого система видит впервые, отправляет заявку: профиль
// заводится middleware'ом из клеймов токена, заявка сохраняется со ссылкой
// на репортёра.
func TestReportHandler_Submit_FirstTimeUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &memReportStore{}
	reportService := service.NewReportService(store, &memDecisionStore{}, 0.75, 72*time.Hour)
	screenshotStorage, err := storage.NewScreenshotStorage(t.TempDir(), 5)
	require.NoError(t, err)

	secret := "report-handler-test-secret"
	tokens := service.NewTokenManager(secret)
	prov := &memProvisioner{}

	r := gin.New()
	handler := NewReportHandler(reportService, screenshotStorage)
	r.POST("/reports", middleware.AuthMiddleware(tokens, prov), handler.Submit)

	userID := uuid.New()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "newcomer@example.com",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("visa_type", "B1/B2"))
	require.NoError(t, form.WriteField("consulate", "Mumbai"))
	require.NoError(t, form.WriteField("earliest_date", "2025-07-01"))
	require.NoError(t, form.Close())

	req, _ := http.NewRequest("POST", "/reports", &body)
	req.Header.Set("Authorization", "Bearer "+signed)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "newcomer@example.com", prov.profiles[userID])
	require.Len(t, store.reports, 1)
	require.NotNil(t, store.reports[0].ReporterID)
	assert.Equal(t, userID, *store.reports[0].ReporterID)
}

func TestReportHandler_Submit_BadDateWithAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ReportHandler{reports: nil, storage: nil}
	r.POST("/reports", handler.Submit)

	// Дата парсится до обращения к сервису, поэтому nil-зависимости безопасны.
	req, _ := http.NewRequest("POST", "/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
