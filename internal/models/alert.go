package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	AlertStatusPending = "pending"
	AlertStatusSent    = "sent"
	AlertStatusFailed  = "failed"
)

// Alert — одна попытка доставки оповещения. Строка с данным dedupe_key
// может существовать только одна, это и есть гарантия at-most-once.
type Alert struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	ReportID    uuid.UUID  `db:"report_id" json:"report_id"`
	Channel     string     `db:"channel" json:"channel"`
	DedupeKey   string     `db:"dedupe_key" json:"dedupe_key"`
	Status      string     `db:"status" json:"status"`
	ErrorDetail *string    `db:"error_detail" json:"error_detail,omitempty"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AlertDedupeKey строит детерминированный ключ тройки (получатель, заявка, канал).
// UUID не содержат двоеточий, поэтому конкатенации с разделителем достаточно.
func AlertDedupeKey(userID, reportID uuid.UUID, channel string) string {
	return fmt.Sprintf("%s:%s:%s", userID, reportID, channel)
}
