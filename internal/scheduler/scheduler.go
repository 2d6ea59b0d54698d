// Package scheduler запускает периодические sweep-джобы: рассылку оповещений
// и purge скриншотов. Каждый запуск — короткоживущая stateless единица работы;
// пересечение с параллельными ручными запусками безопасно (dedupe-захват,
// идемпотентный purge).
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
)

// jobTimeout ограничивает один проход джобы.
const jobTimeout = 5 * time.Minute

// Scheduler управляет cron-джобами рассылки и purge.
type Scheduler struct {
	cron      *cron.Cron
	alerts    *service.AlertService
	purge     *service.PurgeService
	isRunning bool
}

// New создаёт планировщик.
func New(alerts *service.AlertService, purge *service.PurgeService) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		alerts: alerts,
		purge:  purge,
	}
}

// Start регистрирует джобы и запускает cron.
// dispatchSpec/purgeSpec — cron-выражения (поддерживается "@every 5m").
func (s *Scheduler) Start(dispatchSpec, purgeSpec string) error {
	if _, err := s.cron.AddFunc(dispatchSpec, s.runDispatch); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(purgeSpec, s.runPurge); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	logger.Log.WithFields(logrus.Fields{
		"dispatch": dispatchSpec,
		"purge":    purgeSpec,
	}).Info("scheduler: started")

	return nil
}

// Stop останавливает cron и дожидается завершения текущих джоб.
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		logger.Log.Info("scheduler: stopped")
	}
}

func (s *Scheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.alerts.RunDispatch(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("scheduler: dispatch sweep failed")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"reports":         result.ReportsProcessed,
		"sent":            result.AlertsSent,
		"failed":          result.AlertsFailed,
		"suppressed":      result.Suppressed,
		"already_claimed": result.AlreadyClaimed,
	}).Info("scheduler: dispatch sweep completed")
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.purge.RunPurge(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("scheduler: purge sweep failed")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"candidates": result.CandidateCount,
		"purged":     result.PurgedCount,
		"errors":     len(result.Errors),
	}).Info("scheduler: purge sweep completed")
}
