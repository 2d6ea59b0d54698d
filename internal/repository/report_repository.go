package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

var (
	// ErrReportNotFound возвращается, когда заявка не найдена.
	ErrReportNotFound = errors.New("report not found")

	// ErrReportAlreadyDecided возвращается при попытке изменить терминальный статус.
	ErrReportAlreadyDecided = errors.New("report already decided")
)

// ReportRepository отвечает за работу с заявками о слотах.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create вставляет новую заявку. Confidence, status и purge_at уже вычислены
// сервисом: либо всё записывается, либо ничего.
func (r *ReportRepository) Create(ctx context.Context, report *models.SlotReport) error {
	query := `
		INSERT INTO slot_reports
			(reporter_id, consulate, visa_type, earliest_date, latest_date,
			 screenshot_path, source, confidence, status, purge_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		report.ReporterID,
		report.Consulate,
		report.VisaType,
		report.EarliestDate,
		report.LatestDate,
		report.ScreenshotPath,
		report.Source,
		report.Confidence,
		report.Status,
		report.PurgeAt,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SlotReport, error) {
	var report models.SlotReport
	if err := r.db.GetContext(ctx, &report, `SELECT * FROM slot_reports WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// ListByReporter возвращает заявки конкретного репортёра.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.SlotReport, error) {
	var reports []models.SlotReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM slot_reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reporterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list by reporter %w", err)
	}
	return reports, nil
}

// ListByStatus возвращает заявки в заданном статусе (очередь модерации).
func (r *ReportRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.SlotReport, error) {
	var reports []models.SlotReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM slot_reports WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list by status %w", err)
	}
	return reports, nil
}

// ListRecentVerified возвращает ленту недавно подтверждённых заявок.
func (r *ReportRepository) ListRecentVerified(ctx context.Context, limit, offset int) ([]models.SlotReport, error) {
	var reports []models.SlotReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM slot_reports WHERE status = 'verified' ORDER BY updated_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list recent verified %w", err)
	}
	return reports, nil
}

// ListVerifiedSince возвращает заявки, подтверждённые после указанного момента.
// Используется диспетчером оповещений со скользящим окном.
func (r *ReportRepository) ListVerifiedSince(ctx context.Context, since time.Time) ([]models.SlotReport, error) {
	var reports []models.SlotReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM slot_reports
		WHERE status = 'verified' AND updated_at >= $1
		ORDER BY updated_at ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("report repository: list verified since %w", err)
	}
	return reports, nil
}

// CountVerifiedByReporter возвращает число подтверждённых заявок репортёра.
func (r *ReportRepository) CountVerifiedByReporter(ctx context.Context, reporterID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM slot_reports WHERE reporter_id = $1 AND status = 'verified'
	`, reporterID)
	if err != nil {
		return 0, fmt.Errorf("report repository: count verified by reporter %w", err)
	}
	return count, nil
}

// CountSimilarSince считает заявки по той же паре виза+консульство начиная
// с указанного момента. Вызывается до вставки новой заявки, поэтому она сама
// в подсчёт не попадает.
func (r *ReportRepository) CountSimilarSince(ctx context.Context, visaType, consulate string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM slot_reports
		WHERE visa_type = $1 AND consulate = $2 AND created_at >= $3
	`, visaType, consulate, since)
	if err != nil {
		return 0, fmt.Errorf("report repository: count similar since %w", err)
	}
	return count, nil
}

// ApplyDecision переводит заявку из pending в терминальный статус и схлопывает
// purge_at в decidedAt. Условие status = 'pending' гарантирует, что
// терминальные статусы не перезаписываются.
func (r *ReportRepository) ApplyDecision(ctx context.Context, id uuid.UUID, status string, decidedAt time.Time) (*models.SlotReport, error) {
	var report models.SlotReport
	err := r.db.GetContext(ctx, &report, `
		UPDATE slot_reports
		SET status = $2, purge_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, status, decidedAt)
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report repository: apply decision %w", err)
	}

	// Либо заявки нет, либо она уже решена — различаем для вызывающего.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrReportAlreadyDecided
}

// ListPurgeCandidates возвращает заявки с непустым скриншотом и наступившим
// дедлайном удаления.
func (r *ReportRepository) ListPurgeCandidates(ctx context.Context, now time.Time) ([]models.SlotReport, error) {
	var reports []models.SlotReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM slot_reports
		WHERE screenshot_path IS NOT NULL AND purge_at IS NOT NULL AND purge_at <= $1
		ORDER BY purge_at ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("report repository: list purge candidates %w", err)
	}
	return reports, nil
}

// ClearScreenshot очищает ссылку на скриншот и ставит отметку удаления.
// Повторный вызов безопасен: заявка без ссылки больше не кандидат на purge.
func (r *ReportRepository) ClearScreenshot(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE slot_reports
		SET screenshot_path = NULL, screenshot_deleted_at = $2
		WHERE id = $1
	`, id, deletedAt)
	if err != nil {
		return fmt.Errorf("report repository: clear screenshot %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report repository: clear screenshot rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrReportNotFound
	}

	return nil
}
