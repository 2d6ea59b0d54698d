package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// ModerationStore описывает операции хранилища, нужные модерации.
type ModerationStore interface {
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.SlotReport, error)
	ApplyDecision(ctx context.Context, id uuid.UUID, status string, decidedAt time.Time) (*models.SlotReport, error)
}

// DecisionLog описывает журнал решений для модерации.
type DecisionLog interface {
	Create(ctx context.Context, decision *models.VerificationDecision) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.VerificationDecision, error)
}

// ModerationService ведёт жизненный цикл заявки: pending -> verified|rejected.
// Оба перехода терминальны и схлопывают purge_at в момент решения — данные
// не держатся дольше необходимого независимо от исхода.
type ModerationService struct {
	reports   ModerationStore
	decisions DecisionLog
	now       func() time.Time
}

// NewModerationService создаёт сервис модерации.
func NewModerationService(reports ModerationStore, decisions DecisionLog) *ModerationService {
	return &ModerationService{
		reports:   reports,
		decisions: decisions,
		now:       time.Now,
	}
}

// ListPending возвращает очередь заявок на модерацию.
func (s *ModerationService) ListPending(ctx context.Context, limit, offset int) ([]models.SlotReport, error) {
	return s.reports.ListByStatus(ctx, models.ReportStatusPending, limit, offset)
}

// ListByStatus возвращает заявки в заданном статусе (для админского обзора).
func (s *ModerationService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.SlotReport, error) {
	return s.reports.ListByStatus(ctx, status, limit, offset)
}

// Decide применяет решение модератора. Повторное решение по уже решённой
// заявке отклоняется хранилищем (ErrReportAlreadyDecided): пересмотр — это
// новое событие, а не откат статуса.
func (s *ModerationService) Decide(ctx context.Context, reportID, moderatorID uuid.UUID, decision string, reasonCodes []string) (*models.SlotReport, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return nil, fmt.Errorf("%w: decision must be %q or %q", ErrInvalidInput,
			models.DecisionVerified, models.DecisionRejected)
	}

	decidedAt := s.now()

	report, err := s.reports.ApplyDecision(ctx, reportID, decision, decidedAt)
	if err != nil {
		return nil, err
	}

	// Ручное решение обязано попасть в журнал: без него история модерации
	// неполна, и ошибка хранилища отдаётся администратору как есть.
	record := &models.VerificationDecision{
		ReportID:    reportID,
		ModeratorID: &moderatorID,
		Decision:    decision,
		ReasonCodes: pq.StringArray(reasonCodes),
	}
	if err := s.decisions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("moderation service: record decision %w", err)
	}

	return report, nil
}

// History возвращает журнал решений по заявке.
func (s *ModerationService) History(ctx context.Context, reportID uuid.UUID) ([]models.VerificationDecision, error) {
	return s.decisions.ListByReport(ctx, reportID)
}
