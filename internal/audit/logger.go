package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log logs a raw audit event.
	Log(ctx context.Context, event *Event) error

	// LogWorkflow logs workflow lifecycle events.
	LogWorkflowStarted(ctx context.Context, requestID, agent string) error
	LogWorkflowCompleted(ctx context.Context, requestID, finalStatus string, duration time.Duration) error
	LogWorkflowFailed(ctx context.Context, requestID string, err error) error

	// LogPolicy logs critic/policy decisions.
	LogPolicyViolationDetected(ctx context.Context, requestID, violationKind string) error
	LogAutoRevisionApplied(ctx context.Context, requestID string, revisionCount int) error
	LogManualReviewRequired(ctx context.Context, requestID, reason string) error

	// LogContext logs context-assembly events.
	LogContextPruned(ctx context.Context, requestID string, tokensPruned int) error
	LogBudgetOverflow(ctx context.Context, requestID string, requestedTokens, budgetTokens int) error

	// LogConfigReload logs configuration reload events.
	LogConfigReload(ctx context.Context, source string) error

	// Sync flushes buffered log entries.
	Sync() error

	// Close closes the audit logger.
	Close() error
}

// Config represents audit logger configuration.
type Config struct {
	// AuditLogPath is the path to the audit log file.
	AuditLogPath string

	// AppLogPath is the path to the application log file.
	AppLogPath string

	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int

	// Compress determines if rotated files should be compressed.
	Compress bool

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string
}

// DefaultConfig returns default audit logger configuration.
func DefaultConfig() *Config {
	return &Config{
		AuditLogPath: "logs/audit.log",
		AppLogPath:   "logs/app.log",
		MaxSize:      100, // megabytes
		MaxBackups:   10,
		MaxAge:       30, // days
		Compress:     true,
		LogLevel:     "info",
	}
}

// auditLogger implements the Logger interface.
type auditLogger struct {
	appLogger   *zap.Logger
	auditLogger *zap.Logger
	config      *Config
	mu          sync.Mutex
	buffer      []*Event
	flushTicker *time.Ticker
	stopCh      chan struct{}
}

// NewLogger creates a new audit logger.
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.LogLevel, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	appRotator := &lumberjack.Logger{
		Filename:   config.AppLogPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	appCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(appRotator),
		level,
	)

	appLogger := zap.New(appCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	auditRotator := &lumberjack.Logger{
		Filename:   config.AuditLogPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	auditCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(auditRotator),
		zapcore.InfoLevel, // audit logs are always INFO level
	)

	auditZapLogger := zap.New(auditCore)

	logger := &auditLogger{
		appLogger:   appLogger,
		auditLogger: auditZapLogger,
		config:      config,
		buffer:      make([]*Event, 0, 100),
		flushTicker: time.NewTicker(1 * time.Second),
		stopCh:      make(chan struct{}),
	}

	go logger.autoFlush()

	return logger, nil
}

// Log logs an audit event.
func (l *auditLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer = append(l.buffer, event)

	if len(l.buffer) >= 100 {
		return l.flushLocked()
	}

	return nil
}

// flushLocked flushes the buffer. Caller must hold the lock.
func (l *auditLogger) flushLocked() error {
	if len(l.buffer) == 0 {
		return nil
	}

	for _, event := range l.buffer {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			l.appLogger.Error("failed to marshal audit event",
				zap.Error(err),
				zap.String("event_type", string(event.EventType)),
			)
			continue
		}

		l.auditLogger.Info(string(eventJSON),
			zap.String("correlation_id", event.CorrelationID),
			zap.String("event_type", string(event.EventType)),
			zap.String("result", string(event.Result)),
		)
	}

	l.buffer = l.buffer[:0]

	return nil
}

// autoFlush periodically flushes the buffer.
func (l *auditLogger) autoFlush() {
	for {
		select {
		case <-l.flushTicker.C:
			l.mu.Lock()
			_ = l.flushLocked()
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// LogWorkflowStarted logs the start of an orchestrator run for a request.
func (l *auditLogger) LogWorkflowStarted(ctx context.Context, requestID, agent string) error {
	event := NewEvent(EventWorkflowStarted).
		WithCorrelationID(requestID).
		WithAgent(agent).
		WithResult(ResultPending).
		WithDescription(fmt.Sprintf("workflow started for request %s (%s)", requestID, agent))

	return l.Log(ctx, event)
}

// LogWorkflowCompleted logs the end of an orchestrator run, carrying its
// final status and total timing.
func (l *auditLogger) LogWorkflowCompleted(ctx context.Context, requestID, finalStatus string, duration time.Duration) error {
	event := NewEvent(EventWorkflowCompleted).
		WithCorrelationID(requestID).
		WithResult(ResultSuccess).
		WithDuration(duration).
		WithMetadata("final_status", finalStatus).
		WithDescription(fmt.Sprintf("workflow completed for request %s: %s", requestID, finalStatus))

	return l.Log(ctx, event)
}

// LogWorkflowFailed logs an orchestrator run that errored out before
// producing a critic outcome.
func (l *auditLogger) LogWorkflowFailed(ctx context.Context, requestID string, err error) error {
	event := NewEvent(EventWorkflowFailed).
		WithCorrelationID(requestID).
		WithError(err, "workflow_error").
		WithDescription(fmt.Sprintf("workflow failed for request %s", requestID))

	return l.Log(ctx, event)
}

// LogPolicyViolationDetected logs a single violation the validator raised
// during critic review.
func (l *auditLogger) LogPolicyViolationDetected(ctx context.Context, requestID, violationKind string) error {
	event := NewEvent(EventPolicyViolationDetected).
		WithCorrelationID(requestID).
		WithResult(ResultDenied).
		WithMetadata("violation_kind", violationKind).
		WithDescription(fmt.Sprintf("policy violation detected for request %s: %s", requestID, violationKind))

	return l.Log(ctx, event)
}

// LogAutoRevisionApplied logs that the critic applied a deterministic
// auto-revision transform rather than escalating to manual review.
func (l *auditLogger) LogAutoRevisionApplied(ctx context.Context, requestID string, revisionCount int) error {
	event := NewEvent(EventAutoRevisionApplied).
		WithCorrelationID(requestID).
		WithResult(ResultSuccess).
		WithMetadata("revision_count", revisionCount).
		WithDescription(fmt.Sprintf("auto-revision applied for request %s (%d revisions)", requestID, revisionCount))

	return l.Log(ctx, event)
}

// LogManualReviewRequired logs that the critic escalated a request for
// human sign-off.
func (l *auditLogger) LogManualReviewRequired(ctx context.Context, requestID, reason string) error {
	event := NewEvent(EventManualReviewRequired).
		WithCorrelationID(requestID).
		WithResult(ResultPending).
		WithMetadata("reason", reason).
		WithDescription(fmt.Sprintf("manual review required for request %s: %s", requestID, reason))

	return l.Log(ctx, event)
}

// LogContextPruned logs that the context assembler removed turns or
// artifacts to stay within its token budget.
func (l *auditLogger) LogContextPruned(ctx context.Context, requestID string, tokensPruned int) error {
	event := NewEvent(EventContextPruned).
		WithCorrelationID(requestID).
		WithResult(ResultSuccess).
		WithMetadata("tokens_pruned", tokensPruned).
		WithDescription(fmt.Sprintf("context pruned for request %s: %d tokens removed", requestID, tokensPruned))

	return l.Log(ctx, event)
}

// LogBudgetOverflow logs that even maximal pruning could not fit the
// assembled context within its total token budget.
func (l *auditLogger) LogBudgetOverflow(ctx context.Context, requestID string, requestedTokens, budgetTokens int) error {
	event := NewEvent(EventBudgetOverflow).
		WithCorrelationID(requestID).
		WithResult(ResultFailure).
		WithMetadata("requested_tokens", requestedTokens).
		WithMetadata("budget_tokens", budgetTokens).
		WithDescription(fmt.Sprintf("budget overflow for request %s: %d tokens requested against a %d budget", requestID, requestedTokens, budgetTokens))

	return l.Log(ctx, event)
}

// LogConfigReload logs a successful configuration reload, identifying the
// source that triggered it (file watch, explicit reload call).
func (l *auditLogger) LogConfigReload(ctx context.Context, source string) error {
	event := NewEvent(EventConfigReload).
		WithResult(ResultSuccess).
		WithMetadata("source", source).
		WithDescription(fmt.Sprintf("configuration reloaded (source: %s)", source))

	return l.Log(ctx, event)
}

// Sync flushes buffered log entries.
func (l *auditLogger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.flushLocked(); err != nil {
		return err
	}

	if err := l.auditLogger.Sync(); err != nil {
		return err
	}

	return l.appLogger.Sync()
}

// Close closes the audit logger.
func (l *auditLogger) Close() error {
	close(l.stopCh)
	l.flushTicker.Stop()

	return l.Sync()
}

type correlationIDKey struct{}

// GetCorrelationID extracts the correlation ID (request ID) from a context.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID adds a correlation ID (request ID) to a context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GenerateCorrelationID generates a new correlation ID.
func GenerateCorrelationID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
}
