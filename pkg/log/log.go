// Package log provides structured logging for mdsvm on top of zerolog.
//
// Components hold a Logger obtained from GetLoggerWithName and log with
// key/value pairs using the shared keys declared in this package:
//
//	logger := log.GetLoggerWithName("linear").With(log.ModelNameKey, "LinearSVM")
//	logger.Info("Training started", log.SamplesKey, n, log.ClassesKey, c)
//
// Event style logging is available through GetLogger, which returns the
// underlying zerolog logger.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Shared field keys.
const (
	ModelNameKey    = "model_name"
	ComponentKey    = "component"
	OperationKey    = "operation"
	PhaseKey        = "phase"
	SamplesKey      = "samples"
	FeaturesKey     = "features"
	ClassesKey      = "classes"
	EpochKey        = "epoch"
	LossKey         = "loss"
	LearningRateKey = "learning_rate"
	DurationMsKey   = "duration_ms"
	PredsKey        = "preds"
	RunIDKey        = "run_id"
	RequestIDKey    = "request_id"
)

// Values for OperationKey and PhaseKey.
const (
	OperationFit      = "fit"
	OperationStep     = "step"
	OperationPredict  = "predict"
	OperationEvaluate = "evaluate"
	PhaseTraining     = "training"
	PhaseInference    = "inference"
)

// Level is a logging severity.
type Level int8

// Supported levels, mirroring zerolog.
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	Disabled
)

// ToLogLevel parses a level name. Unknown names map to InfoLevel.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "disabled", "off", "none":
		return Disabled
	default:
		return InfoLevel
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case Disabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger is the logging interface used throughout mdsvm. Fields are passed
// as alternating keys and values.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out named loggers sharing one output and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level. An error value in first position is attached
// under zerolog's error field.
func (l *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := l.zl.Error()
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

// ZerologProvider is a LoggerProvider writing through zerolog.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing human readable output to stderr.
func NewZerologProvider(level Level) *ZerologProvider {
	return NewZerologProviderWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, level)
}

// NewZerologProviderWithWriter creates a provider writing JSON lines to w.
func NewZerologProviderWithWriter(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base: zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger(),
	}
}

func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base}
}

func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base.With().Str("logger", name).Logger()}
}

func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(level.zerolog())
}

func (p *ZerologProvider) zerolog() *zerolog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	zl := p.base
	return &zl
}

var (
	globalMu       sync.RWMutex
	globalProvider = NewZerologProvider(InfoLevel)
)

// SetupLogger replaces the global provider with a console logger at the named level.
func SetupLogger(level string) {
	SetProvider(NewZerologProvider(ToLogLevel(level)))
}

// SetProvider replaces the global provider.
func SetProvider(p *ZerologProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

func provider() *ZerologProvider {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalProvider
}

// GetLogger returns the global zerolog logger for event style logging.
func GetLogger() *zerolog.Logger {
	return provider().zerolog()
}

// GetLoggerWithName returns a named Logger from the global provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	GetLogger().Error().Err(err).Msg(msg)
}
