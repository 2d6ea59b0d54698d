package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Preference — подписка пользователя на оповещения о слотах.
// Уникальна по (user_id, visa_type, consulate): повторная отправка перезаписывает.
type Preference struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	VisaType        string         `db:"visa_type" json:"visa_type"`
	Consulate       string         `db:"consulate" json:"consulate"`
	DateStart       *time.Time     `db:"date_start" json:"date_start,omitempty"`
	DateEnd         *time.Time     `db:"date_end" json:"date_end,omitempty"`
	Channels        pq.StringArray `db:"channels" json:"channels"`
	QuietHoursStart int            `db:"quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd   int            `db:"quiet_hours_end" json:"quiet_hours_end"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// QuietAt сообщает, попадает ли час (0-23) в тихое окно подписки.
// Окно start > end охватывает полночь (22 -> 8); start == end — пустое окно.
func (p *Preference) QuietAt(hour int) bool {
	s, e := p.QuietHoursStart, p.QuietHoursEnd
	if s > e {
		return hour >= s || hour < e
	}
	return hour >= s && hour < e
}

// MatchesDate проверяет, что самая ранняя дата заявки попадает в окно подписки.
// Незаданная граница считается всегда выполненной; обе границы включительные.
func (p *Preference) MatchesDate(earliest time.Time) bool {
	if p.DateStart != nil && earliest.Before(*p.DateStart) {
		return false
	}
	if p.DateEnd != nil && earliest.After(*p.DateEnd) {
		return false
	}
	return true
}
