package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	INFO    *log.Logger
	ERROR   *log.Logger
	zlog    = zap.NewNop()
	logFile *lumberjack.Logger
)

// Options описывает, куда и с каким уровнем писать лог
type Options struct {
	// Name попадает в поле logger каждой записи ("master", "worker-2")
	Name     string
	FilePath string
	Level    string
}

func LogINFO(s string) {
	if INFO == nil {
		return
	}
	INFO.Println(s)
}

func LogERROR(s string) {
	if ERROR == nil {
		return
	}
	ERROR.Println(s)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init настраивает zap и пересоздает INFO/ERROR поверх него.
// Без пути к файлу лог пишется в stderr, чтобы не смешиваться с выводом оператору.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var sink zapcore.WriteSyncer
	if opts.FilePath != "" {
		logFile = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		sink = zapcore.AddSync(logFile)
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, parseLevel(opts.Level))
	zlog = zap.New(core, zap.AddCaller())
	if opts.Name != "" {
		zlog = zlog.Named(opts.Name)
	}

	INFO = newStdLog(zlog, zapcore.InfoLevel)
	ERROR = newStdLog(zlog, zapcore.ErrorLevel)
}

func newStdLog(l *zap.Logger, level zapcore.Level) *log.Logger {
	std, err := zap.NewStdLogAt(l, level)
	if err != nil {
		// уровень всегда валиден, сюда не попадаем
		return log.New(os.Stderr, level.CapitalString()+": ", log.LstdFlags)
	}
	return std
}

// InitMasterLogger настраивает лог процесса мастера
func InitMasterLogger(filePath, level string) {
	Init(Options{Name: "master", FilePath: filePath, Level: level})
}

// InitWorkerLogger настраивает лог процесса воркера. Каждый воркер пишет в свой файл,
// lumberjack не рассчитан на ротацию одного файла из нескольких процессов.
func InitWorkerLogger(filePath, level string, workerID int) {
	if filePath != "" {
		filePath = fmt.Sprintf("%s.worker-%d", filePath, workerID)
	}
	Init(Options{Name: fmt.Sprintf("worker-%d", workerID), FilePath: filePath, Level: level})
}

// Discard отключает вывод логов, используется в тестах
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	zlog = zap.NewNop()
	INFO = log.New(io.Discard, "INFO: ", 0)
	ERROR = log.New(io.Discard, "ERROR: ", 0)
}

// L возвращает структурированный логгер
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return zlog
}

func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()
	_ = zlog.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func init() {
	Discard()
}
