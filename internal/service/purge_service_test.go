package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

type fakePurgeStore struct {
	reports map[uuid.UUID]*models.SlotReport
}

func newFakePurgeStore(reports ...*models.SlotReport) *fakePurgeStore {
	f := &fakePurgeStore{reports: make(map[uuid.UUID]*models.SlotReport)}
	for _, r := range reports {
		f.reports[r.ID] = r
	}
	return f
}

func (f *fakePurgeStore) ListPurgeCandidates(ctx context.Context, now time.Time) ([]models.SlotReport, error) {
	var out []models.SlotReport
	for _, r := range f.reports {
		if r.ScreenshotPath != nil && r.PurgeAt != nil && !r.PurgeAt.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakePurgeStore) ClearScreenshot(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	report, ok := f.reports[id]
	if !ok {
		return errors.New("report not found")
	}
	report.ScreenshotPath = nil
	report.ScreenshotDeletedAt = &deletedAt
	return nil
}

type fakeBlobStore struct {
	deleted  []string
	failPath string
}

func (f *fakeBlobStore) Delete(ctx context.Context, relativePath string) error {
	if relativePath == f.failPath {
		return errors.New("disk error")
	}
	f.deleted = append(f.deleted, relativePath)
	return nil
}

func expiredReport(path string, purgeAt time.Time) *models.SlotReport {
	return &models.SlotReport{
		ID:             uuid.New(),
		VisaType:       "B1/B2",
		Consulate:      "Mumbai",
		ScreenshotPath: &path,
		PurgeAt:        &purgeAt,
	}
}

func TestPurgeService_RunPurge_DeletesExpired(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	report := expiredReport("ab/one.png", now.Add(-time.Hour))
	fresh := expiredReport("cd/two.png", now.Add(time.Hour))

	store := newFakePurgeStore(report, fresh)
	blobs := &fakeBlobStore{}
	svc := NewPurgeService(store, blobs)
	svc.now = func() time.Time { return now }

	result, err := svc.RunPurge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.CandidateCount)
	assert.Equal(t, 1, result.PurgedCount)
	assert.Equal(t, []string{"ab/one.png"}, blobs.deleted)

	// Метаданные сохранены, ссылка очищена, отметка времени стоит.
	assert.Nil(t, store.reports[report.ID].ScreenshotPath)
	require.NotNil(t, store.reports[report.ID].ScreenshotDeletedAt)
	assert.Equal(t, "Mumbai", store.reports[report.ID].Consulate)

	// Свежая заявка не тронута.
	assert.NotNil(t, store.reports[fresh.ID].ScreenshotPath)
}

func TestPurgeService_RunPurge_PartialFailureContinues(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	bad := expiredReport("ab/bad.png", now.Add(-time.Hour))
	good := expiredReport("cd/good.png", now.Add(-time.Hour))

	store := newFakePurgeStore(bad, good)
	blobs := &fakeBlobStore{failPath: "ab/bad.png"}
	svc := NewPurgeService(store, blobs)
	svc.now = func() time.Time { return now }

	result, err := svc.RunPurge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.CandidateCount)
	assert.Equal(t, 1, result.PurgedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, bad.ID, result.Errors[0].ReportID)

	// Неудавшийся кандидат остаётся кандидатом для следующего прохода.
	assert.NotNil(t, store.reports[bad.ID].ScreenshotPath)
	assert.Nil(t, store.reports[good.ID].ScreenshotPath)
}

func TestPurgeService_RunPurge_SecondRunIsNoop(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	report := expiredReport("ab/one.png", now.Add(-time.Hour))

	store := newFakePurgeStore(report)
	blobs := &fakeBlobStore{}
	svc := NewPurgeService(store, blobs)
	svc.now = func() time.Time { return now }

	_, err := svc.RunPurge(context.Background())
	require.NoError(t, err)

	result, err := svc.RunPurge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.CandidateCount)
	assert.Equal(t, 0, result.PurgedCount)
	assert.Len(t, blobs.deleted, 1)
}
