package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/validation"
)

// ErrNotPreferenceOwner возвращается при попытке тронуть чужую подписку.
var ErrNotPreferenceOwner = errors.New("preference belongs to another user")

// PreferenceStore описывает взаимодействие сервиса с хранилищем подписок.
type PreferenceStore interface {
	Upsert(ctx context.Context, pref *models.Preference) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Preference, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// UpsertPreferenceInput — данные подписки из API.
type UpsertPreferenceInput struct {
	VisaType        string
	Consulate       string
	DateStart       *time.Time
	DateEnd         *time.Time
	Channels        []string
	QuietHoursStart int
	QuietHoursEnd   int
}

// PreferenceService ведёт подписки на оповещения.
type PreferenceService struct {
	prefs PreferenceStore
}

// NewPreferenceService создаёт сервис подписок.
func NewPreferenceService(prefs PreferenceStore) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

// Upsert валидирует и атомарно вставляет или замещает подписку по ключу
// (user_id, visa_type, consulate).
func (s *PreferenceService) Upsert(ctx context.Context, userID uuid.UUID, input UpsertPreferenceInput) (*models.Preference, error) {
	if err := s.validate(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pref := &models.Preference{
		UserID:          userID,
		VisaType:        input.VisaType,
		Consulate:       input.Consulate,
		DateStart:       input.DateStart,
		DateEnd:         input.DateEnd,
		Channels:        pq.StringArray(input.Channels),
		QuietHoursStart: input.QuietHoursStart,
		QuietHoursEnd:   input.QuietHoursEnd,
	}
	if pref.Channels == nil {
		pref.Channels = pq.StringArray{}
	}

	if err := s.prefs.Upsert(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

// ListMine возвращает подписки пользователя.
func (s *PreferenceService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	return s.prefs.ListByUser(ctx, userID)
}

// Delete удаляет подписку после проверки владельца.
func (s *PreferenceService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	pref, err := s.prefs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if pref.UserID != userID {
		return ErrNotPreferenceOwner
	}
	return s.prefs.Delete(ctx, id)
}

// DeleteAllForUser удаляет все подписки пользователя (удаление аккаунта).
func (s *PreferenceService) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.prefs.DeleteByUser(ctx, userID)
}

func (s *PreferenceService) validate(input UpsertPreferenceInput) error {
	if err := validation.ValidateVisaType(input.VisaType); err != nil {
		return err
	}
	if err := validation.ValidateConsulate(input.Consulate); err != nil {
		return err
	}
	if err := validation.ValidateChannels(input.Channels); err != nil {
		return err
	}
	if err := validation.ValidateQuietHour("quiet_hours_start", input.QuietHoursStart); err != nil {
		return err
	}
	if err := validation.ValidateQuietHour("quiet_hours_end", input.QuietHoursEnd); err != nil {
		return err
	}
	return validation.ValidateDateRange(input.DateStart, input.DateEnd)
}
