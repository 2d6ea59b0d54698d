package dto

// PreferenceRequest — создание или замещение подписки на оповещения.
type PreferenceRequest struct {
	VisaType        string   `json:"visa_type" binding:"required"`
	Consulate       string   `json:"consulate" binding:"required"`
	DateStart       *string  `json:"date_start"`
	DateEnd         *string  `json:"date_end"`
	Channels        []string `json:"channels"`
	QuietHoursStart int      `json:"quiet_hours_start"`
	QuietHoursEnd   int      `json:"quiet_hours_end"`
}

// DecisionRequest — решение модератора по заявке.
type DecisionRequest struct {
	Decision    string   `json:"decision" binding:"required"`
	ReasonCodes []string `json:"reason_codes"`
}

// ProfileUpdateRequest — обновление профиля текущего пользователя.
type ProfileUpdateRequest struct {
	FullName *string `json:"full_name"`
}
