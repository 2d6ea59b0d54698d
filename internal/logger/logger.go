package logger

import (
	"github.com/sirupsen/logrus"
)

// Log — общий логгер процесса: его пишут HTTP-слой, диспетчер оповещений
// и purge-sweep'ы.
var Log *logrus.Logger

// Init инициализирует структурированный логгер. Непонятный уровень молча
// заменяется на info, чтобы опечатка в конфиге не валила запуск.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON по умолчанию: итоги sweep'ов разбираются агрегатором логов.
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter переключает логи в текстовый формат (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
