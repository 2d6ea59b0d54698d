package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	DecisionVerified = "verified"
	DecisionRejected = "rejected"

	// ReasonAutoConfidence проставляется решениям, принятым автоматически по скорингу.
	ReasonAutoConfidence = "auto_confidence"
)

// VerificationDecision — неизменяемая запись исхода модерации (ручной или
// автоматической). ModeratorID равен NULL для автоматических решений.
// Текущую истину отражает только поле status самой заявки.
type VerificationDecision struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	ReportID    uuid.UUID      `db:"report_id" json:"report_id"`
	ModeratorID *uuid.UUID     `db:"moderator_id" json:"moderator_id,omitempty"`
	Decision    string         `db:"decision" json:"decision"`
	ReasonCodes pq.StringArray `db:"reason_codes" json:"reason_codes,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
