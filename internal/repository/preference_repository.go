package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// ErrPreferenceNotFound возвращается, когда подписка не найдена.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceRepository отвечает за подписки на оповещения.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository создаёт экземпляр репозитория.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Upsert атомарно вставляет или замещает подписку по ключу
// (user_id, visa_type, consulate). Никакого read-then-write в коде:
// гонки конкурентных апдейтов решает сама БД.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	query := `
		INSERT INTO preferences
			(user_id, visa_type, consulate, date_start, date_end,
			 channels, quiet_hours_start, quiet_hours_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, visa_type, consulate) DO UPDATE SET
			date_start        = EXCLUDED.date_start,
			date_end          = EXCLUDED.date_end,
			channels          = EXCLUDED.channels,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end   = EXCLUDED.quiet_hours_end,
			updated_at        = NOW()
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		pref.UserID,
		pref.VisaType,
		pref.Consulate,
		pref.DateStart,
		pref.DateEnd,
		pref.Channels,
		pref.QuietHoursStart,
		pref.QuietHoursEnd,
	).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
		return fmt.Errorf("preference repository: upsert %w", err)
	}

	return nil
}

// GetByID возвращает подписку по идентификатору.
func (r *PreferenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Preference, error) {
	var pref models.Preference
	if err := r.db.GetContext(ctx, &pref, `SELECT * FROM preferences WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("preference repository: get by id %w", err)
	}

	return &pref, nil
}

// ListByUser возвращает все подписки пользователя.
func (r *PreferenceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.SelectContext(ctx, &prefs, `
		SELECT * FROM preferences WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("preference repository: list by user %w", err)
	}
	return prefs, nil
}

// ListMatching возвращает подписки с совпадающей парой виза+консульство.
// Фильтрация по окну дат выполняется выше, в диспетчере.
func (r *PreferenceRepository) ListMatching(ctx context.Context, visaType, consulate string) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.SelectContext(ctx, &prefs, `
		SELECT * FROM preferences WHERE visa_type = $1 AND consulate = $2
	`, visaType, consulate)
	if err != nil {
		return nil, fmt.Errorf("preference repository: list matching %w", err)
	}
	return prefs, nil
}

// Delete удаляет подписку.
func (r *PreferenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("preference repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("preference repository: delete rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrPreferenceNotFound
	}

	return nil
}

// DeleteByUser удаляет все подписки пользователя (при удалении аккаунта).
func (r *PreferenceRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("preference repository: delete by user %w", err)
	}
	return nil
}
