package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Уровни логирования, как они задаются в конфигурации.
const (
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

// Options настройки логгера.
type Options struct {
	// DEBUG, INFO, WARN или ERROR. Пусто значит INFO.
	Level string
	// "json" или "console". Пусто значит console.
	Format string
	// Каталог для файлов логов. Пусто значит только stdout/stderr.
	// В каталоге ведутся <Name>-{0,1,2}.log и errors-{0,1,2}.log
	// с ротацией по дням месяца.
	Dir  string
	Name string
}

// New строит zap логгер: консоль плюс, если задан Dir, файлы с ротацией.
// Ошибки дополнительно пишутся в отдельный файл errors-N.log.
// Вызывающий должен вызвать closeFn при завершении.
func New(opts Options) (logger *zap.Logger, closeFn func() error, err error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		level, err = zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("log format %q: want json or console", opts.Format)
	}

	atLeast := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })
	errorsOnly := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	belowErrors := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level && l < zapcore.ErrorLevel })

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), belowErrors),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), errorsOnly),
	}
	closeFn = func() error { return nil }

	if opts.Dir != "" {
		name := opts.Name
		if name == "" {
			name = "stdlog"
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		stdFile := NewDayFile(opts.Dir, name)
		errFile := NewDayFile(opts.Dir, "errors")
		cores = append(cores,
			zapcore.NewCore(enc, stdFile, atLeast),
			zapcore.NewCore(enc, errFile, errorsOnly),
		)
		closeFn = func() error {
			return multierr.Combine(stdFile.Close(), errFile.Close())
		}
	}

	return zap.New(zapcore.NewTee(cores...)), closeFn, nil
}

// PrintIfErr пишет ошибку, если она есть. Удобно в defer для Close.
func PrintIfErr(logger *zap.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, zap.Error(err))
	}
}
