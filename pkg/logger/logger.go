package logger

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init настраивает глобальный JSON логгер сервиса с выводом в stdout
func Init(serviceName string, level string) {
	InitWithWriter(serviceName, level, os.Stdout)
}

// InitWithWriter используется в тестах для перехвата вывода
func InitWithWriter(serviceName string, level string, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log = zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// InitLogstash дублирует логи в Logstash по TCP
func InitLogstash(addr string, serviceName string, level string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}

	InitWithWriter(serviceName, level, zerolog.MultiLevelWriter(os.Stdout, conn))
	return nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

func With() zerolog.Context {
	return log.With()
}

// Printf позволяет передавать логгер в библиотеки с printf-интерфейсом (cron, gorm)
func Printf(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

type printfLogger struct{}

func (printfLogger) Printf(format string, args ...interface{}) {
	Printf(format, args...)
}

// PrintfLogger возвращает адаптер с методом Printf (cron.VerbosePrintfLogger, gorm logger.New)
func PrintfLogger() interface {
	Printf(format string, args ...interface{})
} {
	return printfLogger{}
}
