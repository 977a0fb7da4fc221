package logger

import (
	"context"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger and optionally forwards structured records
// to a fluentd sink.
type Logger struct {
	*zap.SugaredLogger
	fluentdLogger *fluent.Fluent
	serviceName   string
}

// NewLogger creates a Logger from configuration.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Logging.Level == types.LogLevelDebug {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableStacktrace = true

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	var fluentdLogger *fluent.Fluent
	if cfg.Logging.FluentdEnabled && cfg.Logging.FluentdHost != "" && cfg.Logging.FluentdPort > 0 {
		fluentdLogger, err = fluent.New(fluent.Config{
			FluentHost:   cfg.Logging.FluentdHost,
			FluentPort:   cfg.Logging.FluentdPort,
			Async:        true,
			WriteTimeout: 3 * time.Second,
			RetryWait:    500,
			MaxRetry:     5,
		})
		if err != nil {
			zapLogger.Sugar().Warnf("failed to initialize fluentd logger: %v, falling back to stdout only", err)
			fluentdLogger = nil
		}
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
		fluentdLogger: fluentdLogger,
		serviceName:   string(cfg.Deployment.Mode),
	}, nil
}

// NewNopLogger returns a logger that discards everything; used in tests.
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithContext returns a logger with the request-scoped identifiers attached.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(
			"request_id", types.GetRequestID(ctx),
			"company_id", types.GetCompanyID(ctx),
			"user_id", types.GetUserID(ctx),
		),
		fluentdLogger: l.fluentdLogger,
		serviceName:   l.serviceName,
	}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
	l.sendToFluentd("debug", msg, keysAndValues...)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
	l.sendToFluentd("info", msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
	l.sendToFluentd("warning", msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	l.sendToFluentd("error", msg, keysAndValues...)
}

// sendToFluentd posts a structured record asynchronously; failures are
// reported to stderr and never block the caller.
func (l *Logger) sendToFluentd(level, msg string, keysAndValues ...interface{}) {
	if l.fluentdLogger == nil {
		return
	}

	record := map[string]interface{}{
		"level":     level,
		"message":   msg,
		"service":   l.serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			record[key] = keysAndValues[i+1]
		}
	}

	if err := l.fluentdLogger.Post("billing.logs", record); err != nil {
		l.SugaredLogger.Warnf("failed to send log to fluentd: %v", err)
	}
}

// ginLogger adapts Logger to gin's io.Writer logging interface.
type ginLogger struct {
	logger *Logger
}

// GetGinLogger returns a gin-compatible writer.
func (l *Logger) GetGinLogger() *ginLogger {
	return &ginLogger{logger: l}
}

func (g *ginLogger) Write(p []byte) (n int, err error) {
	g.logger.Info(string(p))
	return len(p), nil
}
