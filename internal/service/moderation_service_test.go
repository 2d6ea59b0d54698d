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

// fakeModerationStore воспроизводит pending-only семантику ApplyDecision.
type fakeModerationStore struct {
	reports map[uuid.UUID]*models.SlotReport
}

func newFakeModerationStore(reports ...*models.SlotReport) *fakeModerationStore {
	m := &fakeModerationStore{reports: make(map[uuid.UUID]*models.SlotReport)}
	for _, r := range reports {
		m.reports[r.ID] = r
	}
	return m
}

func (f *fakeModerationStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.SlotReport, error) {
	var out []models.SlotReport
	for _, r := range f.reports {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeModerationStore) ApplyDecision(ctx context.Context, id uuid.UUID, status string, decidedAt time.Time) (*models.SlotReport, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	if report.Status != models.ReportStatusPending {
		return nil, repository.ErrReportAlreadyDecided
	}
	report.Status = status
	report.PurgeAt = &decidedAt
	report.UpdatedAt = decidedAt
	return report, nil
}

type fakeDecisionLog struct {
	decisions []*models.VerificationDecision
}

func (f *fakeDecisionLog) Create(ctx context.Context, decision *models.VerificationDecision) error {
	f.decisions = append(f.decisions, decision)
	return nil
}

func (f *fakeDecisionLog) ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.VerificationDecision, error) {
	var out []models.VerificationDecision
	for _, d := range f.decisions {
		if d.ReportID == reportID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func pendingReport() *models.SlotReport {
	return &models.SlotReport{
		ID:        uuid.New(),
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Status:    models.ReportStatusPending,
	}
}

func TestModerationService_Decide_Verify(t *testing.T) {
	report := pendingReport()
	store := newFakeModerationStore(report)
	log := &fakeDecisionLog{}
	svc := NewModerationService(store, log)

	decidedAt := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return decidedAt }

	moderatorID := uuid.New()
	updated, err := svc.Decide(context.Background(), report.ID, moderatorID, models.DecisionVerified, []string{"clear_screenshot"})
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusVerified, updated.Status)
	require.NotNil(t, updated.PurgeAt)
	assert.True(t, updated.PurgeAt.Equal(decidedAt))

	require.Len(t, log.decisions, 1)
	require.NotNil(t, log.decisions[0].ModeratorID)
	assert.Equal(t, moderatorID, *log.decisions[0].ModeratorID)
	assert.Contains(t, log.decisions[0].ReasonCodes, "clear_screenshot")
}

func TestModerationService_Decide_RejectCollapsesPurge(t *testing.T) {
	report := pendingReport()
	svc := NewModerationService(newFakeModerationStore(report), &fakeDecisionLog{})

	decidedAt := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return decidedAt }

	updated, err := svc.Decide(context.Background(), report.ID, uuid.New(), models.DecisionRejected, nil)
	require.NoError(t, err)

	// Отклонение тоже терминально и тоже схлопывает дедлайн удаления.
	assert.Equal(t, models.ReportStatusRejected, updated.Status)
	require.NotNil(t, updated.PurgeAt)
	assert.True(t, updated.PurgeAt.Equal(decidedAt))
}

func TestModerationService_Decide_AlreadyDecided(t *testing.T) {
	report := pendingReport()
	svc := NewModerationService(newFakeModerationStore(report), &fakeDecisionLog{})

	_, err := svc.Decide(context.Background(), report.ID, uuid.New(), models.DecisionVerified, nil)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), report.ID, uuid.New(), models.DecisionRejected, nil)
	assert.ErrorIs(t, err, repository.ErrReportAlreadyDecided)
}

func TestModerationService_Decide_UnknownDecision(t *testing.T) {
	report := pendingReport()
	log := &fakeDecisionLog{}
	svc := NewModerationService(newFakeModerationStore(report), log)

	_, err := svc.Decide(context.Background(), report.ID, uuid.New(), "maybe", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, log.decisions)
}

func TestModerationService_Decide_NotFound(t *testing.T) {
	svc := NewModerationService(newFakeModerationStore(), &fakeDecisionLog{})

	_, err := svc.Decide(context.Background(), uuid.New(), uuid.New(), models.DecisionVerified, nil)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestModerationService_History(t *testing.T) {
	report := pendingReport()
	log := &fakeDecisionLog{}
	svc := NewModerationService(newFakeModerationStore(report), log)

	_, err := svc.Decide(context.Background(), report.ID, uuid.New(), models.DecisionVerified, nil)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
