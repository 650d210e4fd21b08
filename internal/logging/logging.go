// Package logging builds the service logger and adapts it for gin and gorm.
package logging

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gormlogger "gorm.io/gorm/logger"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

func New(level, format string) *log.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

func NewWithWriter(w io.Writer, level, format string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       ParseFormatter(format),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "todod",
	})
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Middleware tags every request with an id and writes one access line once
// the handler chain has finished.
func Middleware(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", requestID,
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

type gormAdapter struct {
	logger        *log.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger routes gorm's statement and error logging through logger.
// Record-not-found is expected traffic here and is never logged.
func NewGormLogger(logger *log.Logger) gormlogger.Interface {
	return &gormAdapter{
		logger:        logger.WithPrefix("gorm"),
		level:         gormlogger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (g *gormAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormAdapter) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger.Infof(msg, args...)
	}
}

func (g *gormAdapter) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger.Warnf(msg, args...)
	}
}

func (g *gormAdapter) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger.Errorf(msg, args...)
	}
}

func (g *gormAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.logger.Error("query failed", "err", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.Warn("slow query", "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logger.Debug("query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
