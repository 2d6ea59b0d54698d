package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/notify"
)

// DispatchReportStore отдаёт заявки, подтверждённые за скользящее окно.
type DispatchReportStore interface {
	ListVerifiedSince(ctx context.Context, since time.Time) ([]models.SlotReport, error)
}

// PreferenceMatcher отбирает подписки-кандидаты по атрибутам заявки.
type PreferenceMatcher interface {
	ListMatching(ctx context.Context, visaType, consulate string) ([]models.Preference, error)
}

// ContactResolver превращает идентификаторы получателей в контакты.
type ContactResolver interface {
	GetEmailsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// AlertStore — хранилище записей о доставке с атомарным захватом dedupe-ключа.
type AlertStore interface {
	Claim(ctx context.Context, alert *models.Alert) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, detail string) error
}

// ChannelRegistry доставляет сообщение через отправителя канала.
type ChannelRegistry interface {
	Send(ctx context.Context, channel string, msg notify.Message) error
}

// DispatchResult — итог одного прохода диспетчера. Все счётчики, кроме
// ReportsProcessed, считают попытки доставки (получатель, канал).
type DispatchResult struct {
	ReportsProcessed int `json:"reports_processed"`
	AlertsSent       int `json:"alerts_sent"`
	AlertsFailed     int `json:"alerts_failed"`
	Suppressed       int `json:"suppressed"`
	AlreadyClaimed   int `json:"already_claimed"`
}

// AlertService — оркестратор рассылки: матчер подписок, фильтр тихих часов
// и дедуплицирующий диспетчер. Для тройки (получатель, заявка, канал)
// доставка предпринимается не более одного раза за всю жизнь системы,
// сколько бы sweep'ов ни пересеклось.
type AlertService struct {
	reports  DispatchReportStore
	prefs    PreferenceMatcher
	contacts ContactResolver
	alerts   AlertStore
	senders  ChannelRegistry
	lookback time.Duration
	now      func() time.Time
}

// NewAlertService создаёт диспетчер. lookback — скользящее окно sweep'а.
func NewAlertService(
	reports DispatchReportStore,
	prefs PreferenceMatcher,
	contacts ContactResolver,
	alerts AlertStore,
	senders ChannelRegistry,
	lookback time.Duration,
) *AlertService {
	return &AlertService{
		reports:  reports,
		prefs:    prefs,
		contacts: contacts,
		alerts:   alerts,
		senders:  senders,
		lookback: lookback,
		now:      time.Now,
	}
}

// RunDispatch обрабатывает заявки, подтверждённые за lookback-окно.
// Ошибка по одной заявке не прерывает проход; повторный или параллельный
// запуск безопасен благодаря dedupe-захвату.
func (s *AlertService) RunDispatch(ctx context.Context) (*DispatchResult, error) {
	since := s.now().Add(-s.lookback)

	reports, err := s.reports.ListVerifiedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}
	for i := range reports {
		if err := s.DispatchReport(ctx, &reports[i], result); err != nil {
			if logger.Log != nil {
				logger.Log.WithError(err).WithField("report_id", reports[i].ID).
					Error("alert service: dispatch report failed")
			}
			continue
		}
		result.ReportsProcessed++
	}

	return result, nil
}

// DispatchReport разворачивает одну подтверждённую заявку в попытки доставки.
func (s *AlertService) DispatchReport(ctx context.Context, report *models.SlotReport, result *DispatchResult) error {
	prefs, err := s.prefs.ListMatching(ctx, report.VisaType, report.Consulate)
	if err != nil {
		return err
	}

	// Окно дат: сравнивается только earliest_date заявки, незаданная граница
	// всегда удовлетворена.
	candidates := prefs[:0]
	for _, pref := range prefs {
		if pref.MatchesDate(report.EarliestDate) {
			candidates = append(candidates, pref)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	userIDs := make([]uuid.UUID, 0, len(candidates))
	for _, pref := range candidates {
		userIDs = append(userIDs, pref.UserID)
	}
	emails, err := s.contacts.GetEmailsByIDs(ctx, userIDs)
	if err != nil {
		return err
	}

	// Тихие часы оцениваются в момент рассылки по серверным часам —
	// единая таймзона для всех подписок (известное ограничение).
	hour := s.now().Hour()

	for _, pref := range candidates {
		if pref.QuietAt(hour) {
			// Подавление окончательное: оповещение пропускается, не откладывается.
			// Счётчик идёт по каналам, чтобы быть сопоставимым с AlertsSent.
			result.Suppressed += len(pref.Channels)
			continue
		}

		for _, channel := range pref.Channels {
			s.dispatchOne(ctx, report, pref, channel, emails[pref.UserID], result)
		}
	}

	return nil
}

// dispatchOne выполняет одну попытку доставки под защитой dedupe-захвата.
func (s *AlertService) dispatchOne(ctx context.Context, report *models.SlotReport, pref models.Preference, channel, email string, result *DispatchResult) {
	alert := &models.Alert{
		UserID:    pref.UserID,
		ReportID:  report.ID,
		Channel:   channel,
		DedupeKey: models.AlertDedupeKey(pref.UserID, report.ID, channel),
	}

	claimed, err := s.alerts.Claim(ctx, alert)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithError(err).WithField("dedupe_key", alert.DedupeKey).
				Error("alert service: claim failed")
		}
		result.AlertsFailed++
		return
	}
	if !claimed {
		// Ключ уже занят: доставка была предпринята раньше (успех или нет),
		// повторов в этом дизайне не бывает.
		result.AlreadyClaimed++
		return
	}

	msg := notify.Message{
		UserID:       pref.UserID,
		Email:        email,
		ReportID:     report.ID,
		VisaType:     report.VisaType,
		Consulate:    report.Consulate,
		EarliestDate: report.EarliestDate,
		LatestDate:   report.LatestDate,
	}

	if sendErr := s.senders.Send(ctx, channel, msg); sendErr != nil {
		if err := s.alerts.MarkFailed(ctx, alert.ID, sendErr.Error()); err != nil && logger.Log != nil {
			logger.Log.WithError(err).WithField("alert_id", alert.ID).
				Error("alert service: mark failed")
		}
		result.AlertsFailed++
		return
	}

	if err := s.alerts.MarkSent(ctx, alert.ID, s.now()); err != nil && logger.Log != nil {
		logger.Log.WithError(err).WithField("alert_id", alert.ID).
			Error("alert service: mark sent")
	}
	result.AlertsSent++
}
