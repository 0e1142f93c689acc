package observability

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeStep     EventType = "step"
	EventTypeFallback EventType = "fallback"
	EventTypeSearch   EventType = "search"
	EventTypeLLM      EventType = "llm"
	EventTypeCost     EventType = "cost"
	EventTypeRun      EventType = "run"
)

const defaultLLMLogMaxSize = 10 * 1024 * 1024 // 10MB

// Event represents a structured log entry.
type Event struct {
	Type      EventType
	RunID     string
	Step      string
	Data      any
	Timestamp time.Time
}

// Options configures NewLogger.
type Options struct {
	Verbose bool
	// LLMLogPath receives one JSON line per LLM exchange. Empty disables it.
	LLMLogPath string
	MaxSize    int64
}

// Logger emits structured events through zap. LLM exchanges are also
// appended to a dedicated transcript file.
type Logger struct {
	zl  *zap.Logger
	llm *zap.Logger
}

func NewLogger(opts Options) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	l := &Logger{zl: zl}
	if opts.LLMLogPath != "" {
		maxSize := opts.MaxSize
		if maxSize <= 0 {
			maxSize = defaultLLMLogMaxSize
		}
		sink := &rotatingFile{path: opts.LLMLogPath, maxSize: maxSize}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(sink),
			zapcore.DebugLevel,
		)
		l.llm = zap.New(core)
	}
	return l, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// NewWithZap wraps an existing zap logger, mostly for tests using zaptest/observer.
func NewWithZap(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

// Zap exposes the underlying logger for ad-hoc messages.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

func (l *Logger) Sync() {
	_ = l.zl.Sync()
	if l.llm != nil {
		_ = l.llm.Sync()
	}
}

// Log emits a structured event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	fields := []zap.Field{
		zap.String("type", string(evt.Type)),
		zap.Time("ts_event", evt.Timestamp),
	}
	if evt.RunID != "" {
		fields = append(fields, zap.String("run_id", evt.RunID))
	}
	if evt.Step != "" {
		fields = append(fields, zap.String("step", evt.Step))
	}
	if evt.Data != nil {
		fields = append(fields, zap.Any("data", evt.Data))
	}

	switch evt.Type {
	case EventTypeFallback:
		l.zl.Warn("event", fields...)
	case EventTypeLLM:
		l.zl.Debug("event", fields...)
		if l.llm != nil {
			l.llm.Info("llm", fields...)
		}
	default:
		l.zl.Info("event", fields...)
	}
}

// Helper methods for common events

func (l *Logger) LogStep(ctx context.Context, step, message string) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: RunID(ctx),
		Step:  step,
		Data:  map[string]string{"message": message},
	})
}

func (l *Logger) LogFallback(ctx context.Context, step string, err error) {
	l.Log(Event{
		Type:  EventTypeFallback,
		RunID: RunID(ctx),
		Step:  step,
		Data:  map[string]string{"error": err.Error()},
	})
}

func (l *Logger) LogSearch(ctx context.Context, query string, results int, err error) {
	data := map[string]any{
		"query":   query,
		"results": results,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{
		Type:  EventTypeSearch,
		RunID: RunID(ctx),
		Data:  data,
	})
}

func (l *Logger) LogLLM(ctx context.Context, op, system, prompt, response string) {
	l.Log(Event{
		Type:  EventTypeLLM,
		RunID: RunID(ctx),
		Data: map[string]any{
			"op":       op,
			"system":   system,
			"prompt":   prompt,
			"response": response,
		},
	})
}

func (l *Logger) LogCost(ctx context.Context, promptTokens, completionTokens int, model string) {
	l.Log(Event{
		Type:  EventTypeCost,
		RunID: RunID(ctx),
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
			"model":             model,
		},
	})
}

type runIDKey struct{}

// WithRunID tags ctx so every event logged under it carries the run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// rotatingFile is a zapcore.WriteSyncer that keeps one .old generation once
// the file grows past maxSize.
type rotatingFile struct {
	mu      sync.Mutex
	path    string
	maxSize int64
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return 0, err
	}

	// Check size before writing
	if info, err := os.Stat(r.path); err == nil && info.Size() > r.maxSize {
		r.rotate()
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}

func (r *rotatingFile) Sync() error {
	return nil
}

func (r *rotatingFile) rotate() {
	oldPath := r.path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(r.path, oldPath)
}
