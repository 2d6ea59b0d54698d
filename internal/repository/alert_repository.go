package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// ErrAlertNotFound возвращается, когда оповещение не найдено.
var ErrAlertNotFound = errors.New("alert not found")

// uniqueViolation — код ошибки Postgres для нарушения уникального ограничения.
const uniqueViolation = "23505"

// AlertRepository отвечает за записи о доставке оповещений.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository создаёт экземпляр репозитория.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Claim атомарно захватывает dedupe-ключ: вставляет pending-строку, если
// ключа ещё нет. Возвращает false, если ключ уже занят — доставка для этой
// тройки (получатель, заявка, канал) уже была предпринята. Уникальный индекс
// в БД — единственный арбитр при гонке конкурентных sweep'ов.
func (r *AlertRepository) Claim(ctx context.Context, alert *models.Alert) (bool, error) {
	query := `
		INSERT INTO alerts (user_id, report_id, channel, dedupe_key, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (dedupe_key) DO NOTHING
		RETURNING id, status, created_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		alert.UserID,
		alert.ReportID,
		alert.Channel,
		alert.DedupeKey,
	).Scan(&alert.ID, &alert.Status, &alert.CreatedAt)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return false, nil
	}
	return false, fmt.Errorf("alert repository: claim %w", err)
}

// MarkSent переводит оповещение в терминальный статус sent.
func (r *AlertRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET status = 'sent', sent_at = $2, error_detail = NULL
		WHERE id = $1 AND status = 'pending'
	`, id, sentAt)
	if err != nil {
		return fmt.Errorf("alert repository: mark sent %w", err)
	}
	return checkAffected(result, ErrAlertNotFound, "mark sent")
}

// MarkFailed переводит оповещение в терминальный статус failed с деталью ошибки.
func (r *AlertRepository) MarkFailed(ctx context.Context, id uuid.UUID, detail string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET status = 'failed', error_detail = $2
		WHERE id = $1 AND status = 'pending'
	`, id, detail)
	if err != nil {
		return fmt.Errorf("alert repository: mark failed %w", err)
	}
	return checkAffected(result, ErrAlertNotFound, "mark failed")
}

// ListByReport возвращает оповещения по заявке (для админ-диагностики).
func (r *AlertRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.Alert, error) {
	var alerts []models.Alert
	err := r.db.SelectContext(ctx, &alerts, `
		SELECT * FROM alerts WHERE report_id = $1 ORDER BY created_at ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("alert repository: list by report %w", err)
	}
	return alerts, nil
}

// CountByStatus возвращает число оповещений в заданном статусе.
func (r *AlertRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM alerts WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("alert repository: count by status %w", err)
	}
	return count, nil
}

// isUniqueViolation распознаёт нарушение уникального ограничения Postgres.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkAffected проверяет, что UPDATE затронул хотя бы одну строку.
func checkAffected(result sql.Result, notFound error, action string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("alert repository: %s rows affected %w", action, err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
