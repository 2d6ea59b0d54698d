// Package scoring реализует rules-based оценку достоверности заявки (v0).
//
// Факторы:
//   - скриншот приложен: +0.30
//   - у репортёра >= 3 подтверждённых заявок: +0.20
//   - перекрёстные подтверждения за последние 15 минут: +0.25 за каждое, максимум +0.50
package scoring

const (
	BaseScore              = 0.50
	ScreenshotBonus        = 0.30
	ReputationBonus        = 0.20
	ReputationMinVerified  = 3
	CrossConfirmationBonus = 0.25
	MaxCrossConfirmations  = 2

	// DefaultAutoVerifyThreshold — порог автоверификации по умолчанию.
	// Это policy-константа: рабочее значение берётся из конфигурации.
	DefaultAutoVerifyThreshold = 0.75

	// CrossConfirmationWindowMinutes — скользящее окно подсчёта похожих заявок.
	CrossConfirmationWindowMinutes = 15
)

// Evidence — входные данные скоринга одной заявки.
type Evidence struct {
	HasScreenshot         bool
	ReporterVerifiedCount int
	// CrossConfirmations — число независимых заявок по той же паре
	// виза+консульство за скользящее окно, без учёта самой заявки.
	CrossConfirmations int
}

// Score возвращает оценку достоверности в диапазоне [0, 1].
// Чистая функция: без побочных эффектов и I/O.
func Score(e Evidence) float64 {
	score := BaseScore

	if e.HasScreenshot {
		score += ScreenshotBonus
	}

	if e.ReporterVerifiedCount >= ReputationMinVerified {
		score += ReputationBonus
	}

	confirmations := e.CrossConfirmations
	if confirmations > MaxCrossConfirmations {
		confirmations = MaxCrossConfirmations
	}
	if confirmations > 0 {
		score += float64(confirmations) * CrossConfirmationBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ShouldAutoVerify решает, верифицировать ли заявку без модератора.
func ShouldAutoVerify(score, threshold float64) bool {
	return score >= threshold
}
