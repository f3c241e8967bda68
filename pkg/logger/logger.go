package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Logger wraps slog.Logger with booking-domain helpers
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout, text in gin debug mode and JSON otherwise
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"), gin.Mode() != gin.DebugMode)
}

// NewWithWriter builds a logger on w at the given level
func NewWithWriter(w io.Writer, level string, json bool) *Logger {
	lvl := getLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(traceHandler{handler})}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// traceHandler stamps records with the active trace id
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// WithComponent tags every record with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	level := slog.LevelInfo
	if c.Writer.Status() >= 500 {
		level = slog.LevelError
	}
	l.Logger.Log(c.Request.Context(), level,
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Business logic logging methods

// LogBookingCreated logs a successful seat claim
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, reference, showtimeID, userID string, seats int) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("booking_reference", reference),
		slog.String("showtime_id", showtimeID),
		slog.String("user_id", userID),
		slog.Int("seats", seats),
	)
}

// LogBookingReleased logs seats returned to inventory by cancel, expiry or payment failure
func (l *Logger) LogBookingReleased(ctx context.Context, bookingID, showtimeID, reason string, released int) {
	l.Logger.InfoContext(ctx,
		"Booking Released",
		slog.String("booking_id", bookingID),
		slog.String("showtime_id", showtimeID),
		slog.String("reason", reason),
		slog.Int("released_seats", released),
	)
}

// LogPaymentCallback logs the outcome of a provider callback
func (l *Logger) LogPaymentCallback(ctx context.Context, provider, bookingID, outcome string) {
	l.Logger.InfoContext(ctx,
		"Payment Callback",
		slog.String("provider", provider),
		slog.String("booking_id", bookingID),
		slog.String("outcome", outcome),
	)
}

// Security logging methods

// LogSecurityEvent logs rejected signatures and similar events
func (l *Logger) LogSecurityEvent(ctx context.Context, event, source string, attrs ...any) {
	args := append([]any{slog.String("event", event), slog.String("source", source)}, attrs...)
	l.Logger.WarnContext(ctx, "Security Event", args...)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
