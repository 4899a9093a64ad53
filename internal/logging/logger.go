package logging

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger представляет именованный логгер одного компонента. Пишет все
// уровни в свой файл и уровни >= minConsoleLevel в консоль.
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

var defaultLogger = &Logger{
	component:       "default",
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    TRACE,
}

// Глобальный экземпляр логгера, используемый пакетными функциями Log*
var globalLogger *Logger

// NewLogger создаёт логгер компонента со своим файлом в logs/<component>_<ts>.log.
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории logs: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join("logs", fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, fmt.Sprintf("[%s] ", component), log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// Close закрывает файл логгера, если он был открыт.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// InitLogger инициализирует глобальную систему логирования, используемую
// пакетными функциями Log*.
func InitLogger() error {
	logger, err := NewLogger("replserver")
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// CloseLogger закрывает систему логирования
func CloseLogger() {
	if globalLogger != nil {
		globalLogger.Close()
	}
}

// LogTrace логирует сообщение уровня TRACE
func LogTrace(format string, args ...interface{}) {
	logMessage(TRACE, format, args...)
}

// LogDebug логирует сообщение уровня DEBUG
func LogDebug(format string, args ...interface{}) {
	logMessage(DEBUG, format, args...)
}

// LogInfo логирует сообщение уровня INFO
func LogInfo(format string, args ...interface{}) {
	logMessage(INFO, format, args...)
}

// LogWarn логирует сообщение уровня WARN
func LogWarn(format string, args ...interface{}) {
	logMessage(WARN, format, args...)
}

// LogError логирует сообщение уровня ERROR
func LogError(format string, args ...interface{}) {
	logMessage(ERROR, format, args...)
}

// logMessage внутренняя функция для логирования
func logMessage(level LogLevel, format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.log(level, format, args...)
}

// Trace, Debug, Info, Warn, Error — короткие алиасы для пакетов,
// которые логируют через глобальный логгер без префикса Log.
func Trace(format string, args ...interface{}) { LogTrace(format, args...) }
func Debug(format string, args ...interface{}) { LogDebug(format, args...) }
func Info(format string, args ...interface{})  { LogInfo(format, args...) }
func Warn(format string, args ...interface{})  { LogWarn(format, args...) }
func Error(format string, args ...interface{}) { LogError(format, args...) }

// LogFrame логирует буфер репликации (записанный или принятый) с hex дампом.
func LogFrame(owner int64, direction string, payload []byte) {
	LogDebug("=== %s FRAME owner=%d ===", direction, owner)
	LogDebug("Size: %d bytes", len(payload))

	if len(payload) > 0 {
		LogDebug("Hex dump:")
		LogDebug("%s", HexDump(payload))
	}
}

// HexDump создает hex дамп данных
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}

	// Ограничиваем размер дампа до 256 байт
	size := len(data)
	if size > 256 {
		size = 256
	}

	return hex.Dump(data[:size])
}

// LogFramingError логирует ошибки разбора входящего буфера репликации
func LogFramingError(owner int64, status string, data []byte) {
	LogError("Framing error from owner %d: %s", owner, status)
	if len(data) > 0 {
		LogError("Raw data (%d bytes):", len(data))
		LogError("%s", HexDump(data))
	}
}
