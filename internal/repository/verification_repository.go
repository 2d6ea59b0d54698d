package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// VerificationRepository хранит историю решений модерации.
// Записи неизменяемы: только вставка и чтение.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository создаёт экземпляр репозитория.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create добавляет запись решения.
func (r *VerificationRepository) Create(ctx context.Context, decision *models.VerificationDecision) error {
	query := `
		INSERT INTO verification_decisions (report_id, moderator_id, decision, reason_codes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		decision.ReportID,
		decision.ModeratorID,
		decision.Decision,
		decision.ReasonCodes,
	).Scan(&decision.ID, &decision.CreatedAt); err != nil {
		return fmt.Errorf("verification repository: create %w", err)
	}

	return nil
}

// ListByReport возвращает историю решений по заявке в порядке принятия.
func (r *VerificationRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.VerificationDecision, error) {
	var decisions []models.VerificationDecision
	err := r.db.SelectContext(ctx, &decisions, `
		SELECT * FROM verification_decisions WHERE report_id = $1 ORDER BY created_at ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("verification repository: list by report %w", err)
	}
	return decisions, nil
}
