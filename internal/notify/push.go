package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PushBroadcaster — контракт push-транспорта (WebSocket hub).
// Возвращает false, если у получателя нет активных подключений.
type PushBroadcaster interface {
	SendToUser(userID uuid.UUID, event string, data any) (bool, error)
}

// PushSender доставляет оповещения подключённым WebSocket клиентам.
type PushSender struct {
	hub PushBroadcaster
}

// NewPushSender создаёт push-отправитель поверх hub'а.
func NewPushSender(hub PushBroadcaster) *PushSender {
	return &PushSender{hub: hub}
}

// pushPayload — кадр, который уходит клиенту.
type pushPayload struct {
	ReportID     uuid.UUID `json:"report_id"`
	VisaType     string    `json:"visa_type"`
	Consulate    string    `json:"consulate"`
	EarliestDate string    `json:"earliest_date"`
	LatestDate   string    `json:"latest_date,omitempty"`
	Subject      string    `json:"subject"`
}

// Send доставляет оповещение через WebSocket. Отключённый получатель —
// failed доставка: push не ставится в очередь и не повторяется.
func (s *PushSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := pushPayload{
		ReportID:     msg.ReportID,
		VisaType:     msg.VisaType,
		Consulate:    msg.Consulate,
		EarliestDate: msg.EarliestDate.Format("2006-01-02"),
		Subject:      msg.Subject(),
	}
	if msg.LatestDate != nil {
		payload.LatestDate = msg.LatestDate.Format("2006-01-02")
	}

	delivered, err := s.hub.SendToUser(msg.UserID, "slot_alert", payload)
	if err != nil {
		return fmt.Errorf("notify: push send: %w", err)
	}
	if !delivered {
		return fmt.Errorf("notify: %w: push (no active connection)", ErrNoContact)
	}
	return nil
}
