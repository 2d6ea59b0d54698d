package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/scoring"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/validation"
)

// ErrInvalidInput помечает ошибки валидации: они отвергаются на границе
// и в конвейер не попадают.
var ErrInvalidInput = errors.New("invalid input")

// ReportStore описывает взаимодействие сервиса с хранилищем заявок.
type ReportStore interface {
	Create(ctx context.Context, report *models.SlotReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SlotReport, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.SlotReport, error)
	ListRecentVerified(ctx context.Context, limit, offset int) ([]models.SlotReport, error)
	CountVerifiedByReporter(ctx context.Context, reporterID uuid.UUID) (int, error)
	CountSimilarSince(ctx context.Context, visaType, consulate string, since time.Time) (int, error)
}

// DecisionStore описывает журнал решений модерации.
type DecisionStore interface {
	Create(ctx context.Context, decision *models.VerificationDecision) error
}

// SubmitReportInput — входные данные новой заявки. Скриншот уже загружен
// хэндлером, сюда приходит только opaque ссылка.
type SubmitReportInput struct {
	ReporterID     *uuid.UUID
	Consulate      string
	VisaType       string
	EarliestDate   time.Time
	LatestDate     *time.Time
	ScreenshotPath *string
	Source         string
}

// ReportService принимает заявки: валидация, скоринг, автоверификация,
// назначение дедлайна удаления скриншота.
type ReportService struct {
	reports   ReportStore
	decisions DecisionStore
	threshold float64
	retention time.Duration
	now       func() time.Time
}

// NewReportService создаёт сервис приёма заявок. threshold — порог
// автоверификации, retention — срок хранения скриншотов pending-заявок.
func NewReportService(reports ReportStore, decisions DecisionStore, threshold float64, retention time.Duration) *ReportService {
	return &ReportService{
		reports:   reports,
		decisions: decisions,
		threshold: threshold,
		retention: retention,
		now:       time.Now,
	}
}

// SubmitReport проводит заявку через весь шаг приёма. Любая ошибка до
// вставки означает, что ничего не сохранено: повтор всей отправки безопасен.
func (s *ReportService) SubmitReport(ctx context.Context, input SubmitReportInput) (*models.SlotReport, error) {
	if err := s.validate(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()

	// Репутация репортёра: учитываются только подтверждённые заявки.
	verifiedCount := 0
	if input.ReporterID != nil {
		count, err := s.reports.CountVerifiedByReporter(ctx, *input.ReporterID)
		if err != nil {
			return nil, fmt.Errorf("report service: reporter reputation %w", err)
		}
		verifiedCount = count
	}

	// Похожие заявки за скользящее окно. Подсчёт идёт до вставки,
	// поэтому заявка не может подтвердить сама себя.
	windowStart := now.Add(-scoring.CrossConfirmationWindowMinutes * time.Minute)
	crossConfirmations, err := s.reports.CountSimilarSince(ctx, input.VisaType, input.Consulate, windowStart)
	if err != nil {
		return nil, fmt.Errorf("report service: cross confirmations %w", err)
	}

	confidence := scoring.Score(scoring.Evidence{
		HasScreenshot:         input.ScreenshotPath != nil,
		ReporterVerifiedCount: verifiedCount,
		CrossConfirmations:    crossConfirmations,
	})

	status := models.ReportStatusPending
	if scoring.ShouldAutoVerify(confidence, s.threshold) {
		status = models.ReportStatusVerified
	}

	report := &models.SlotReport{
		ReporterID:     input.ReporterID,
		Consulate:      input.Consulate,
		VisaType:       input.VisaType,
		EarliestDate:   input.EarliestDate,
		LatestDate:     input.LatestDate,
		ScreenshotPath: input.ScreenshotPath,
		Source:         input.Source,
		Confidence:     confidence,
		Status:         status,
		PurgeAt:        purgeDeadline(input.ScreenshotPath, status, now, s.retention),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("report service: create %w", err)
	}

	// Автоверификация фиксируется в журнале решений с NULL модератором.
	// Статус заявки уже записан и остаётся источником истины, поэтому сбой
	// аудита не валит приём.
	if status == models.ReportStatusVerified {
		decision := &models.VerificationDecision{
			ReportID:    report.ID,
			Decision:    models.DecisionVerified,
			ReasonCodes: pq.StringArray{models.ReasonAutoConfidence},
		}
		if err := s.decisions.Create(ctx, decision); err != nil && logger.Log != nil {
			logger.Log.WithError(err).WithField("report_id", report.ID).
				Warn("report service: failed to record auto-verify decision")
		}
	}

	return report, nil
}

// GetReport возвращает заявку по идентификатору.
func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.SlotReport, error) {
	return s.reports.GetByID(ctx, id)
}

// ListMyReports возвращает заявки репортёра.
func (s *ReportService) ListMyReports(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.SlotReport, error) {
	return s.reports.ListByReporter(ctx, reporterID, limit, offset)
}

// ListVerified возвращает публичную ленту подтверждённых заявок.
func (s *ReportService) ListVerified(ctx context.Context, limit, offset int) ([]models.SlotReport, error) {
	return s.reports.ListRecentVerified(ctx, limit, offset)
}

func (s *ReportService) validate(input *SubmitReportInput) error {
	if err := validation.ValidateVisaType(input.VisaType); err != nil {
		return err
	}
	if err := validation.ValidateConsulate(input.Consulate); err != nil {
		return err
	}
	if input.EarliestDate.IsZero() {
		return errors.New("earliest_date is required")
	}
	if input.LatestDate != nil && input.LatestDate.Before(input.EarliestDate) {
		return errors.New("latest_date is before earliest_date")
	}

	switch input.Source {
	case models.ReportSourceWeb, models.ReportSourceExtension, models.ReportSourceAnonymous:
	case "":
		if input.ReporterID != nil {
			input.Source = models.ReportSourceWeb
		} else {
			input.Source = models.ReportSourceAnonymous
		}
	default:
		return fmt.Errorf("unknown source %q", input.Source)
	}

	return nil
}

// purgeDeadline вычисляет дедлайн удаления скриншота: retention-окно для
// pending-заявок, немедленно для заявок, верифицированных при приёме.
// Без скриншота удалять нечего.
func purgeDeadline(screenshotPath *string, status string, now time.Time, retention time.Duration) *time.Time {
	if screenshotPath == nil {
		return nil
	}
	deadline := now.Add(retention)
	if status == models.ReportStatusVerified || status == models.ReportStatusRejected {
		deadline = now
	}
	return &deadline
}
