package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to one service name. Derived loggers
// share the writer and add fields.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New builds a logger from cfg. "console" and "pretty" formats write
// human-readable lines; anything else writes JSON.
func New(cfg *Config, service string) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := sink(cfg.Output)
	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		zl = zerolog.New(console(out, service, cfg.NoColor)).With().Timestamp().Logger()
	default:
		ctx := zerolog.New(out).With().Str("service", service)
		if cfg.Timestamp {
			ctx = ctx.Timestamp()
		}
		zl = ctx.Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	return &Logger{zl: zl, service: service}
}

// NewWithWriter is a JSON logger on w, for tests.
func NewWithWriter(w io.Writer, service string) *Logger {
	return &Logger{zl: zerolog.New(w).With().Str("service", service).Logger(), service: service}
}

// NewDefault is an info-level console logger on stdout.
func NewDefault(service string) *Logger {
	return New(&Config{Level: "info", Format: "console", Output: "stdout", Timestamp: true}, service)
}

func sink(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

var levelTags = map[string][2]string{
	"debug": {"[DBG]", "\033[36m[DBG]\033[0m"},
	"info":  {"[INF]", "\033[32m[INF]\033[0m"},
	"warn":  {"[WRN]", "\033[33m[WRN]\033[0m"},
	"error": {"[ERR]", "\033[31m[ERR]\033[0m"},
	"fatal": {"[FTL]", "\033[35m[FTL]\033[0m"},
}

// console prefixes each line with a short service tag and the level.
func console(out io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	color := 1
	if noColor {
		color = 0
	}
	prefix := ""
	if len(service) >= 3 && service != "default" {
		prefix = "[" + strings.ToUpper(service[:3]) + "]"
		if !noColor {
			prefix = "\033[34m" + prefix + "\033[0m"
		}
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i any) string {
			lvl, _ := i.(string)
			tag, ok := levelTags[lvl]
			if !ok {
				return prefix + "[" + strings.ToUpper(lvl) + "]"
			}
			return prefix + tag[color]
		},
		FormatFieldName: func(i any) string { return i.(string) + ":" },
	}
}

func (l *Logger) derive(zl zerolog.Logger) *Logger { return &Logger{zl: zl, service: l.service} }

// WithComponent tags every line with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name).Logger())
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(l.zl.With().Fields(fields).Logger())
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger())
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { emit(l.zl.Error(), msg, fields) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) { emit(l.zl.Fatal(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		e = e.Fields(f)
	}
	e.Msg(msg)
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
	traceIDKey
	spanIDKey
)

// contextFields lists what WithContext copies from a context, in order.
var contextFields = []struct {
	key  ctxKey
	name string
}{
	{traceIDKey, FieldTraceID},
	{spanIDKey, FieldSpanID},
	{requestIDKey, FieldRequestID},
	{userIDKey, FieldUserID},
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithUserID records the authenticated identity for access logs.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func ContextWithTrace(ctx context.Context, traceID, spanID string) context.Context {
	return context.WithValue(context.WithValue(ctx, traceIDKey, traceID), spanIDKey, spanID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithContext adds the trace, span, request and user ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.zl.With()
	for _, f := range contextFields {
		if v, ok := ctx.Value(f.key).(string); ok && v != "" {
			zc = zc.Str(f.name, v)
		}
	}
	return l.derive(zc.Logger())
}

var (
	globalMu sync.RWMutex
	global   *Logger
)

// Init installs the process-wide logger from cfg.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	name := cfg.ServiceName
	if name == "" {
		name = "default"
	}
	SetGlobalLogger(New(cfg, name))
}

func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the process-wide logger, creating a default
// console logger on first use.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := global
	globalMu.RUnlock()
	if l != nil {
		return l
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = NewDefault("default")
	}
	return global
}

// WithComponent derives from the process-wide logger.
func WithComponent(name string) *Logger { return GetGlobalLogger().WithComponent(name) }
