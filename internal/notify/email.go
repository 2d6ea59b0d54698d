package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
)

// EmailSender рендерит оповещение и передаёт его почтовому коллаборатору.
// Реальный транспорт вне ядра; без него письмо логируется (MVP-вариант),
// что позволяет прогонять весь конвейер end-to-end.
type EmailSender struct {
	from string
}

// NewEmailSender создаёт email-отправитель.
func NewEmailSender(from string) *EmailSender {
	return &EmailSender{from: from}
}

// Send доставляет оповещение на email получателя.
func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Email == "" {
		return fmt.Errorf("notify: %w: email", ErrNoContact)
	}

	body := fmt.Sprintf(
		"A new visa slot has been reported.\nVisa Type: %s\nConsulate: %s\nAvailable Dates: %s\n"+
			"This alert is based on user-submitted reports only; verify availability directly with the consulate.",
		msg.VisaType, msg.Consulate, msg.DateRange(),
	)

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"channel":   "email",
			"to":        msg.Email,
			"from":      s.from,
			"report_id": msg.ReportID,
			"subject":   msg.Subject(),
		}).Info(body)
	}

	return nil
}
