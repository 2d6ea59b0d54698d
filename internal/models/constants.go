package models

// Каналы доставки оповещений
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// ValidChannels список каналов, которые можно указать в подписке.
// Канал без зарегистрированного отправителя даёт детерминированный failed,
// а не тихий no-op.
var ValidChannels = map[string]struct{}{
	ChannelEmail: {},
	ChannelSMS:   {},
	ChannelPush:  {},
}

// ValidReportStatuses список валидных статусов заявок
var ValidReportStatuses = map[string]struct{}{
	ReportStatusPending:  {},
	ReportStatusVerified: {},
	ReportStatusRejected: {},
}

// ValidDecisions список валидных исходов модерации
var ValidDecisions = map[string]struct{}{
	DecisionVerified: {},
	DecisionRejected: {},
}
