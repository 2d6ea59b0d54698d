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

// ErrProfileNotFound возвращается, когда профиль не найден.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository отвечает за контактные профили получателей.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository создаёт экземпляр репозитория.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// EnsureExists заводит профиль при первом появлении userID из проверенного
// токена. Email обновляется до значения из identity provider'а; full_name и
// роль существующей строки не трогаются.
func (r *ProfileRepository) EnsureExists(ctx context.Context, id uuid.UUID, email, role string) error {
	query := `
		INSERT INTO profiles (id, email, role)
		VALUES ($1, $2, COALESCE(NULLIF($3, ''), 'user'))
		ON CONFLICT (id) DO UPDATE SET
			email      = EXCLUDED.email,
			updated_at = NOW()
		WHERE profiles.email IS DISTINCT FROM EXCLUDED.email
	`

	if _, err := r.db.ExecContext(ctx, query, id, email, role); err != nil {
		return fmt.Errorf("profile repository: ensure exists %w", err)
	}

	return nil
}

// Upsert создаёт или обновляет профиль. Идентификатор приходит из внешнего
// identity provider'а, поэтому вставка идёт с готовым id.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'user'))
		ON CONFLICT (id) DO UPDATE SET
			email      = EXCLUDED.email,
			full_name  = EXCLUDED.full_name,
			updated_at = NOW()
		RETURNING role, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
	).Scan(&profile.Role, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return fmt.Errorf("profile repository: upsert %w", err)
	}

	return nil
}

// GetByID возвращает профиль по идентификатору.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile repository: get by id %w", err)
	}

	return &profile, nil
}

// GetEmailsByIDs возвращает карту id -> email для набора получателей.
// Пользователи без профиля в карту не попадают.
func (r *ProfileRepository) GetEmailsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	emails := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return emails, nil
	}

	query, args, err := sqlx.In(`SELECT id, email FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("profile repository: build emails query %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("profile repository: get emails %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			email string
		)
		if err := rows.Scan(&id, &email); err != nil {
			return nil, fmt.Errorf("profile repository: scan email %w", err)
		}
		emails[id] = email
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profile repository: iterate emails %w", err)
	}

	return emails, nil
}
