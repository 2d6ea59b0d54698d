package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
)

// Logger — минимальный интерфейс для записи panic.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler перехватывает panic в фоновых горутинах. Долгоживущие
// циклы вроде ws-хаба не должны ронять процесс вместе с диспетчером.
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создаёт обработчик с заданным логгером.
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с перехватом panic.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic in goroutine: %v\nstack:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// processLogger пишет в общий logrus-логгер, а до его инициализации — в stdout.
type processLogger struct{}

func (l *processLogger) Errorf(format string, args ...interface{}) {
	if logger.Log != nil {
		logger.Log.Errorf(format, args...)
		return
	}
	fmt.Printf("[ERROR] "+format+"\n", args...)
}

// DefaultRecoveryHandler — глобальный обработчик на логгере процесса.
var DefaultRecoveryHandler = NewRecoveryHandler(&processLogger{})

// SafeGo запускает горутину под глобальным обработчиком.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}
