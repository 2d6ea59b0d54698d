package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusPending  = "pending"
	ReportStatusVerified = "verified"
	ReportStatusRejected = "rejected"

	ReportSourceWeb       = "web"
	ReportSourceExtension = "extension"
	ReportSourceAnonymous = "anonymous"
)

// SlotReport — заявка о свободных слотах на запись в консульство.
// Статус меняется только pending -> verified или pending -> rejected.
type SlotReport struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	ReporterID          *uuid.UUID `db:"reporter_id" json:"reporter_id,omitempty"`
	Consulate           string     `db:"consulate" json:"consulate"`
	VisaType            string     `db:"visa_type" json:"visa_type"`
	EarliestDate        time.Time  `db:"earliest_date" json:"earliest_date"`
	LatestDate          *time.Time `db:"latest_date" json:"latest_date,omitempty"`
	ScreenshotPath      *string    `db:"screenshot_path" json:"screenshot_path,omitempty"`
	ScreenshotDeletedAt *time.Time `db:"screenshot_deleted_at" json:"screenshot_deleted_at,omitempty"`
	Source              string     `db:"source" json:"source"`
	Confidence          float64    `db:"confidence" json:"confidence"`
	Status              string     `db:"status" json:"status"`
	PurgeAt             *time.Time `db:"purge_at" json:"purge_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// HasScreenshot сообщает, остался ли у заявки прикреплённый скриншот.
func (r *SlotReport) HasScreenshot() bool {
	return r.ScreenshotPath != nil && *r.ScreenshotPath != ""
}
