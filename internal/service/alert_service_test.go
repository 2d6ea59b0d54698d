package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/notify"
)

type fakeDispatchReportStore struct {
	reports []models.SlotReport
}

func (f *fakeDispatchReportStore) ListVerifiedSince(ctx context.Context, since time.Time) ([]models.SlotReport, error) {
	return f.reports, nil
}

type fakePreferenceMatcher struct {
	prefs []models.Preference
}

func (f *fakePreferenceMatcher) ListMatching(ctx context.Context, visaType, consulate string) ([]models.Preference, error) {
	var out []models.Preference
	for _, p := range f.prefs {
		if p.VisaType == visaType && p.Consulate == consulate {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeContactResolver struct{}

func (f *fakeContactResolver) GetEmailsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	emails := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		emails[id] = id.String() + "@example.com"
	}
	return emails, nil
}

// fakeAlertStore воспроизводит семантику уникального dedupe-индекса в памяти.
type fakeAlertStore struct {
	claimed map[string]*models.Alert
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{claimed: make(map[string]*models.Alert)}
}

func (f *fakeAlertStore) Claim(ctx context.Context, alert *models.Alert) (bool, error) {
	if _, ok := f.claimed[alert.DedupeKey]; ok {
		return false, nil
	}
	alert.ID = uuid.New()
	alert.Status = models.AlertStatusPending
	f.claimed[alert.DedupeKey] = alert
	return true, nil
}

func (f *fakeAlertStore) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	for _, a := range f.claimed {
		if a.ID == id {
			a.Status = models.AlertStatusSent
			a.SentAt = &sentAt
			return nil
		}
	}
	return errors.New("alert not found")
}

func (f *fakeAlertStore) MarkFailed(ctx context.Context, id uuid.UUID, detail string) error {
	for _, a := range f.claimed {
		if a.ID == id {
			a.Status = models.AlertStatusFailed
			a.ErrorDetail = &detail
			return nil
		}
	}
	return errors.New("alert not found")
}

func (f *fakeAlertStore) byStatus(status string) int {
	n := 0
	for _, a := range f.claimed {
		if a.Status == status {
			n++
		}
	}
	return n
}

type countingSender struct {
	calls int
	err   error
}

func (s *countingSender) Send(ctx context.Context, msg notify.Message) error {
	s.calls++
	return s.err
}

func newTestAlertService(reports []models.SlotReport, prefs []models.Preference, registry *notify.Registry, store *fakeAlertStore, hour int) *AlertService {
	svc := NewAlertService(
		&fakeDispatchReportStore{reports: reports},
		&fakePreferenceMatcher{prefs: prefs},
		&fakeContactResolver{},
		store,
		registry,
		15*time.Minute,
	)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 10, hour, 30, 0, 0, time.UTC)
	}
	return svc
}

func verifiedReport(visaType, consulate string, earliest time.Time) models.SlotReport {
	return models.SlotReport{
		ID:           uuid.New(),
		VisaType:     visaType,
		Consulate:    consulate,
		EarliestDate: earliest,
		Status:       models.ReportStatusVerified,
	}
}

func TestAlertService_RunDispatch_SendsOnce(t *testing.T) {
	report := verifiedReport("B1/B2", "Mumbai", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	pref := models.Preference{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Channels:  pq.StringArray{models.ChannelEmail},
	}

	sender := &countingSender{}
	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail, sender)
	store := newFakeAlertStore()

	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 12)

	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReportsProcessed)
	assert.Equal(t, 1, result.AlertsSent)
	assert.Equal(t, 0, result.AlertsFailed)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, 1, store.byStatus(models.AlertStatusSent))
}

func TestAlertService_RunDispatch_SecondSweepIsNoop(t *testing.T) {
	report := verifiedReport("B1/B2", "Mumbai", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	pref := models.Preference{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Channels:  pq.StringArray{models.ChannelEmail},
	}

	sender := &countingSender{}
	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail, sender)
	store := newFakeAlertStore()

	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 12)

	_, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)

	// Повторный проход над тем же окном: ключ уже захвачен, повторной
	// доставки нет.
	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsSent)
	assert.Equal(t, 1, result.AlreadyClaimed)
	assert.Equal(t, 1, sender.calls)
}

func TestAlertService_RunDispatch_QuietHoursSuppress(t *testing.T) {
	report := verifiedReport("F1", "Delhi", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	pref := models.Preference{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		VisaType:        "F1",
		Consulate:       "Delhi",
		Channels:        pq.StringArray{models.ChannelEmail, models.ChannelPush},
		QuietHoursStart: 22,
		QuietHoursEnd:   8,
	}

	sender := &countingSender{}
	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail, sender)
	store := newFakeAlertStore()

	// 23:30 — внутри тихого окна 22 -> 8.
	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 23)

	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)
	// Единица счёта — попытка (получатель, канал), как у AlertsSent.
	assert.Equal(t, 2, result.Suppressed)
	assert.Equal(t, 0, result.AlertsSent)
	assert.Equal(t, 0, sender.calls)

	// Подавление окончательное: ключ не захвачен, но следующее событие
	// вне тихих часов доставится — для этого же события повторов не будет.
	assert.Empty(t, store.claimed)
}

func TestAlertService_RunDispatch_UnregisteredChannelFails(t *testing.T) {
	report := verifiedReport("H1B", "Chennai", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	pref := models.Preference{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		VisaType:  "H1B",
		Consulate: "Chennai",
		Channels:  pq.StringArray{models.ChannelSMS},
	}

	registry := notify.NewRegistry()
	store := newFakeAlertStore()

	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 12)

	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsFailed)
	assert.Equal(t, 1, store.byStatus(models.AlertStatusFailed))
}

func TestAlertService_RunDispatch_DateWindowFilters(t *testing.T) {
	report := verifiedReport("B1/B2", "Mumbai", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	windowEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	pref := models.Preference{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Channels:  pq.StringArray{models.ChannelEmail},
		DateEnd:   &windowEnd,
	}

	sender := &countingSender{}
	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail, sender)
	store := newFakeAlertStore()

	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 12)

	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsSent)
	assert.Equal(t, 0, sender.calls)
	assert.Empty(t, store.claimed)
}

func TestAlertService_RunDispatch_MultipleChannels(t *testing.T) {
	report := verifiedReport("B1/B2", "Mumbai", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	pref := models.Preference{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		VisaType:  "B1/B2",
		Consulate: "Mumbai",
		Channels:  pq.StringArray{models.ChannelEmail, models.ChannelSMS},
	}

	sender := &countingSender{}
	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail, sender)
	store := newFakeAlertStore()

	svc := newTestAlertService([]models.SlotReport{report}, []models.Preference{pref}, registry, store, 12)

	result, err := svc.RunDispatch(context.Background())
	require.NoError(t, err)

	// Каналы независимы: email доставлен, sms без отправителя зафиксирован
	// как failed.
	assert.Equal(t, 1, result.AlertsSent)
	assert.Equal(t, 1, result.AlertsFailed)
	assert.Len(t, store.claimed, 2)
}
