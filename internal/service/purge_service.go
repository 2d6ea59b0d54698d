package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// PurgeReportStore описывает операции хранилища для purge-sweep'а.
type PurgeReportStore interface {
	ListPurgeCandidates(ctx context.Context, now time.Time) ([]models.SlotReport, error)
	ClearScreenshot(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
}

// BlobStore удаляет бинарные доказательства по opaque ссылке.
type BlobStore interface {
	Delete(ctx context.Context, relativePath string) error
}

// PurgeError — ошибка обработки одного кандидата.
type PurgeError struct {
	ReportID uuid.UUID `json:"report_id"`
	Error    string    `json:"error"`
}

// PurgeResult — итог одного прохода purge-sweep'а.
type PurgeResult struct {
	CandidateCount int          `json:"candidate_count"`
	PurgedCount    int          `json:"purged_count"`
	PurgedIDs      []uuid.UUID  `json:"purged_ids,omitempty"`
	Errors         []PurgeError `json:"errors,omitempty"`
	ExecutedAt     time.Time    `json:"executed_at"`
}

// PurgeService применяет retention-политику: удаляет скриншоты с наступившим
// purge_at. Кандидаты обрабатываются независимо, частичный сбой не прерывает
// проход, а неудавшийся кандидат остаётся кандидатом до успеха.
type PurgeService struct {
	reports PurgeReportStore
	blobs   BlobStore
	now     func() time.Time
}

// NewPurgeService создаёт purge-сервис.
func NewPurgeService(reports PurgeReportStore, blobs BlobStore) *PurgeService {
	return &PurgeService{
		reports: reports,
		blobs:   blobs,
		now:     time.Now,
	}
}

// RunPurge выполняет один проход. Повторный запуск безопасен: заявка с уже
// очищенной ссылкой больше не кандидат.
func (s *PurgeService) RunPurge(ctx context.Context) (*PurgeResult, error) {
	now := s.now()
	result := &PurgeResult{ExecutedAt: now}

	candidates, err := s.reports.ListPurgeCandidates(ctx, now)
	if err != nil {
		return nil, err
	}
	result.CandidateCount = len(candidates)

	for _, report := range candidates {
		if !report.HasScreenshot() {
			continue
		}

		if err := s.blobs.Delete(ctx, *report.ScreenshotPath); err != nil {
			s.recordError(result, report.ID, err)
			continue
		}

		// Ссылка очищается только после удаления блоба: при сбое заявка
		// останется кандидатом и будет добита следующим проходом.
		if err := s.reports.ClearScreenshot(ctx, report.ID, now); err != nil {
			s.recordError(result, report.ID, err)
			continue
		}

		result.PurgedIDs = append(result.PurgedIDs, report.ID)
		result.PurgedCount++
	}

	return result, nil
}

// PendingCount возвращает число кандидатов на удаление (для мониторинга).
func (s *PurgeService) PendingCount(ctx context.Context) (int, error) {
	candidates, err := s.reports.ListPurgeCandidates(ctx, s.now())
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

func (s *PurgeService) recordError(result *PurgeResult, reportID uuid.UUID, err error) {
	if logger.Log != nil {
		logger.Log.WithError(err).WithField("report_id", reportID).
			Error("purge service: candidate failed")
	}
	result.Errors = append(result.Errors, PurgeError{ReportID: reportID, Error: err.Error()})
}
