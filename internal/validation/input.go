package validation

import (
	"fmt"
	"time"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// DateLayout — формат дат в API (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ValidVisaTypes — поддерживаемые категории виз.
var ValidVisaTypes = map[string]struct{}{
	"B1/B2": {},
	"F1":    {},
	"H1B":   {},
	"L1":    {},
	"O1":    {},
	"J1":    {},
	"K1":    {},
	"Other": {},
}

// ValidConsulates — поддерживаемые консульства.
var ValidConsulates = map[string]struct{}{
	"Mumbai":    {},
	"Delhi":     {},
	"Chennai":   {},
	"Hyderabad": {},
	"Kolkata":   {},
	"Bengaluru": {},
	"Pune":      {},
	"Ahmedabad": {},
	"Other":     {},
}

// ValidateVisaType проверяет категорию визы по списку допустимых.
func ValidateVisaType(v string) error {
	if _, ok := ValidVisaTypes[v]; !ok {
		return fmt.Errorf("unknown visa type %q", v)
	}
	return nil
}

// ValidateConsulate проверяет консульство по списку допустимых.
func ValidateConsulate(v string) error {
	if _, ok := ValidConsulates[v]; !ok {
		return fmt.Errorf("unknown consulate %q", v)
	}
	return nil
}

// ValidateChannels проверяет список каналов подписки.
// Пустой список валиден на уровне данных: такая подписка просто ничего не шлёт.
func ValidateChannels(channels []string) error {
	for _, ch := range channels {
		if _, ok := models.ValidChannels[ch]; !ok {
			return fmt.Errorf("unknown channel %q", ch)
		}
	}
	return nil
}

// ValidateQuietHour проверяет час тихого окна (0-23).
func ValidateQuietHour(name string, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%s must be between 0 and 23, got %d", name, hour)
	}
	return nil
}

// ParseDate разбирает дату формата YYYY-MM-DD.
func ParseDate(name, value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date: %q", name, value)
	}
	return parsed, nil
}

// ValidateDateRange проверяет, что start <= end, если заданы обе границы.
func ValidateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("date range end %s is before start %s",
			end.Format(DateLayout), start.Format(DateLayout))
	}
	return nil
}
