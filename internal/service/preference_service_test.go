package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
)

// fakePreferenceStore воспроизводит upsert по ключу (user, visa, consulate).
type fakePreferenceStore struct {
	prefs map[uuid.UUID]*models.Preference
}

func newFakePreferenceStore() *fakePreferenceStore {
	return &fakePreferenceStore{prefs: make(map[uuid.UUID]*models.Preference)}
}

func (f *fakePreferenceStore) Upsert(ctx context.Context, pref *models.Preference) error {
	for _, existing := range f.prefs {
		if existing.UserID == pref.UserID &&
			existing.VisaType == pref.VisaType &&
			existing.Consulate == pref.Consulate {
			pref.ID = existing.ID
			pref.CreatedAt = existing.CreatedAt
			pref.UpdatedAt = time.Now()
			f.prefs[pref.ID] = pref
			return nil
		}
	}
	pref.ID = uuid.New()
	pref.CreatedAt = time.Now()
	pref.UpdatedAt = pref.CreatedAt
	f.prefs[pref.ID] = pref
	return nil
}

func (f *fakePreferenceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Preference, error) {
	if pref, ok := f.prefs[id]; ok {
		return pref, nil
	}
	return nil, repository.ErrPreferenceNotFound
}

func (f *fakePreferenceStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	var out []models.Preference
	for _, p := range f.prefs {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePreferenceStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.prefs[id]; !ok {
		return repository.ErrPreferenceNotFound
	}
	delete(f.prefs, id)
	return nil
}

func (f *fakePreferenceStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for id, p := range f.prefs {
		if p.UserID == userID {
			delete(f.prefs, id)
		}
	}
	return nil
}

func validPrefInput() UpsertPreferenceInput {
	return UpsertPreferenceInput{
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Channels:  []string{models.ChannelEmail},
	}
}

func TestPreferenceService_Upsert_ReplacesByKey(t *testing.T) {
	store := newFakePreferenceStore()
	svc := NewPreferenceService(store)
	userID := uuid.New()

	first, err := svc.Upsert(context.Background(), userID, validPrefInput())
	require.NoError(t, err)

	input := validPrefInput()
	input.QuietHoursStart = 22
	input.QuietHoursEnd = 8

	second, err := svc.Upsert(context.Background(), userID, input)
	require.NoError(t, err)

	// Тот же ключ — та же подписка, без дубликата.
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.prefs, 1)
	assert.Equal(t, 22, store.prefs[first.ID].QuietHoursStart)
}

func TestPreferenceService_Upsert_Validation(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceStore())
	userID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*UpsertPreferenceInput)
	}{
		{"неизвестная виза", func(in *UpsertPreferenceInput) { in.VisaType = "Q9" }},
		{"неизвестное консульство", func(in *UpsertPreferenceInput) { in.Consulate = "Moscow" }},
		{"неизвестный канал", func(in *UpsertPreferenceInput) { in.Channels = []string{"pigeon"} }},
		{"час вне диапазона", func(in *UpsertPreferenceInput) { in.QuietHoursStart = 24 }},
		{"конец окна раньше начала", func(in *UpsertPreferenceInput) {
			start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 0, -1)
			in.DateStart = &start
			in.DateEnd = &end
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validPrefInput()
			tt.mutate(&input)

			_, err := svc.Upsert(context.Background(), userID, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPreferenceService_Upsert_NilChannelsBecomeEmpty(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceStore())

	input := validPrefInput()
	input.Channels = nil

	pref, err := svc.Upsert(context.Background(), uuid.New(), input)
	require.NoError(t, err)
	assert.NotNil(t, pref.Channels)
	assert.Empty(t, pref.Channels)
}

func TestPreferenceService_Delete_OwnerOnly(t *testing.T) {
	store := newFakePreferenceStore()
	svc := NewPreferenceService(store)
	owner := uuid.New()

	pref, err := svc.Upsert(context.Background(), owner, validPrefInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), pref.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotPreferenceOwner)
	assert.Len(t, store.prefs, 1)

	require.NoError(t, svc.Delete(context.Background(), pref.ID, owner))
	assert.Empty(t, store.prefs)
}

func TestPreferenceService_DeleteAllForUser(t *testing.T) {
	store := newFakePreferenceStore()
	svc := NewPreferenceService(store)
	userID := uuid.New()

	_, err := svc.Upsert(context.Background(), userID, validPrefInput())
	require.NoError(t, err)

	other := validPrefInput()
	other.Consulate = "Delhi"
	_, err = svc.Upsert(context.Background(), userID, other)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllForUser(context.Background(), userID))
	assert.Empty(t, store.prefs)
}
